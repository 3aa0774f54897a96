package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/literexia/assignment-engine/internal/model"
)

// AuditRepository reads and writes the assignment_commits audit log.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// BulkInsert writes a batch with one statement. Records already present
// (same workflow and commit time) are skipped, so requeued records are safe.
func (r *AuditRepository) BulkInsert(ctx context.Context, batch []model.AssignmentAudit) error {
	n := len(batch)
	workflowIDs := make([]string, 0, n)
	studentIDs := make([]string, 0, n)
	teacherIDs := make([]string, 0, n)
	levels := make([]string, 0, n)
	categoryIDs := make([]string, 0, n)
	assignmentIDs := make([]string, 0, n)
	counts := make([]int32, 0, n)
	committedAts := make([]time.Time, 0, n)

	for _, a := range batch {
		cats, err := json.Marshal(nonNilInts(a.CategoryIDs))
		if err != nil {
			return err
		}
		ids, err := json.Marshal(nonNilStrings(a.AssignmentIDs))
		if err != nil {
			return err
		}
		workflowIDs = append(workflowIDs, a.WorkflowID)
		studentIDs = append(studentIDs, a.StudentID)
		teacherIDs = append(teacherIDs, a.TeacherID)
		levels = append(levels, a.ReadingLevel)
		categoryIDs = append(categoryIDs, string(cats))
		assignmentIDs = append(assignmentIDs, string(ids))
		counts = append(counts, int32(a.QuestionCount))
		committedAts = append(committedAts, a.CommittedAt)
	}

	query := `
		INSERT INTO assignment_commits
			(workflow_id, student_id, teacher_id, reading_level, category_ids, assignment_ids, question_count, committed_at)
		SELECT * FROM UNNEST(
			$1::text[],
			$2::text[],
			$3::text[],
			$4::text[],
			$5::jsonb[],
			$6::jsonb[],
			$7::int[],
			$8::timestamptz[]
		)
		ON CONFLICT (workflow_id, committed_at) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		workflowIDs, studentIDs, teacherIDs, levels, categoryIDs, assignmentIDs, counts, committedAts)
	return err
}

// Insert writes one record; used as the fallback when a batch fails.
func (r *AuditRepository) Insert(ctx context.Context, a model.AssignmentAudit) error {
	cats, err := json.Marshal(nonNilInts(a.CategoryIDs))
	if err != nil {
		return err
	}
	ids, err := json.Marshal(nonNilStrings(a.AssignmentIDs))
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO assignment_commits
			(workflow_id, student_id, teacher_id, reading_level, category_ids, assignment_ids, question_count, committed_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7, $8)
		 ON CONFLICT (workflow_id, committed_at) DO NOTHING`,
		a.WorkflowID, a.StudentID, a.TeacherID, a.ReadingLevel, string(cats), string(ids), a.QuestionCount, a.CommittedAt,
	)
	return err
}

// ListByStudent returns a student's most recent commits, newest first.
func (r *AuditRepository) ListByStudent(ctx context.Context, studentID string, limit int) ([]model.AssignmentAudit, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx,
		`SELECT workflow_id, student_id, teacher_id, reading_level, category_ids, assignment_ids, question_count, committed_at
		 FROM assignment_commits
		 WHERE student_id = $1
		 ORDER BY committed_at DESC
		 LIMIT $2`, studentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.AssignmentAudit{}
	for rows.Next() {
		var a model.AssignmentAudit
		var cats, ids []byte
		if err := rows.Scan(&a.WorkflowID, &a.StudentID, &a.TeacherID, &a.ReadingLevel,
			&cats, &ids, &a.QuestionCount, &a.CommittedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(cats, &a.CategoryIDs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(ids, &a.AssignmentIDs); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func nonNilInts(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
