package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/literexia/assignment-engine/internal/model"
	"github.com/literexia/assignment-engine/internal/response"
	"github.com/literexia/assignment-engine/internal/service"
	"github.com/literexia/assignment-engine/internal/validator"
)

const defaultContentPerPage = 50

type ContentHandler struct {
	contentService *service.ContentService
}

func NewContentHandler(contentService *service.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

// ListContent godoc
// GET /api/v1/content/:kind?q=&page=&per_page=
// Lists one content collection for the override picker, filtered by q.
func (h *ContentHandler) ListContent(c *gin.Context) {
	kind, err := model.ParseContentKind(c.Param("kind"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownContentKind)
		return
	}

	var q model.ContentListQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PerPage == 0 {
		q.PerPage = defaultContentPerPage
	}

	items := service.Search(h.contentService.ListContent(c.Request.Context(), kind), q.Query)
	if items == nil {
		items = []model.ContentItem{}
	}

	start := len(items)
	if q.Page-1 < len(items)/q.PerPage+1 {
		start = min((q.Page-1)*q.PerPage, len(items))
	}
	end := min(start+q.PerPage, len(items))

	response.SuccessWithPagination(c, http.StatusOK,
		gin.H{"kind": kind, "items": items[start:end]},
		response.NewPagination(q.Page, q.PerPage, len(items)),
	)
}

// Resolve godoc
// GET /api/v1/content/resolve?collection=&content_id=
func (h *ContentHandler) Resolve(c *gin.Context) {
	var q model.ContentResolveQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	item := h.contentService.ResolveContentReference(c.Request.Context(),
		model.ContentRef{Collection: q.Collection, ContentID: q.ContentID})
	if item == nil {
		response.Fail(c, http.StatusNotFound, response.ErrContentNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"kind": item.Kind(), "item": item})
}

// ListAll godoc
// GET /api/v1/content
// Every collection at once, keyed by kind. Collections that fail to load are
// returned empty.
func (h *ContentHandler) ListAll(c *gin.Context) {
	all := h.contentService.ListAll(c.Request.Context())
	out := make(map[model.ContentKind][]model.ContentItem, len(model.ContentKinds))
	for _, kind := range model.ContentKinds {
		items := all[kind]
		if items == nil {
			items = []model.ContentItem{}
		}
		out[kind] = items
	}
	response.Success(c, http.StatusOK, gin.H{"collections": out})
}
