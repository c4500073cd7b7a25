package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/mylxsw/asteria/log"
	"github.com/mylxsw/coll"
	"github.com/mylxsw/glacier/infra"
	"github.com/mylxsw/glacier/web"
	"github.com/mylxsw/short-link/internal/allocator"
	"github.com/mylxsw/short-link/internal/config"
	"github.com/mylxsw/short-link/internal/link"
)

type LinkController struct {
	resolver infra.Resolver
}

func NewLinkController(resolver infra.Resolver) web.Controller {
	return &LinkController{resolver: resolver}
}

func (ctl LinkController) Register(router web.Router) {
	router.Post("/links", ctl.Shorten)
	router.Get("/links", ctl.Links)
	router.Get("/links/{short_id}/clicks", ctl.Clicks)
	router.Delete("/links/{short_id}", ctl.Delete)

	router.Get("/reuse-pool", ctl.ReusePool)
	router.Get("/allocator", ctl.AllocatorStatus)
}

type ShortenReq struct {
	URL string `json:"url"`
}

type ShortenResp struct {
	ShortID     string `json:"short_id"`
	ShortURL    string `json:"short_url"`
	OriginalURL string `json:"original_url"`
}

type LinkResp struct {
	ShortID  string `json:"short_id"`
	ShortURL string `json:"short_url"`
}

func requestContext(webCtx web.Context) context.Context {
	return webCtx.Request().Raw().Context()
}

// ErrorStatus maps service errors to http status codes
func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, link.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, link.ErrInvalidURL):
		return http.StatusUnprocessableEntity
	case errors.Is(err, allocator.ErrInvalidRelease):
		return http.StatusConflict
	case errors.Is(err, allocator.ErrNamespaceExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(webCtx web.Context, err error) web.Response {
	code := ErrorStatus(err)
	if code == http.StatusInternalServerError {
		log.Errorf("request failed: %v", err)
	}

	return webCtx.JSONError(err.Error(), code)
}

// Shorten 创建短链接
func (ctl LinkController) Shorten(webCtx web.Context, svc *link.Service, conf *config.Server) web.Response {
	var req ShortenReq
	if err := webCtx.Unmarshal(&req); err != nil {
		return webCtx.JSONError("invalid request body: "+err.Error(), http.StatusBadRequest)
	}

	created, err := svc.Shorten(requestContext(webCtx), req.URL)
	if err != nil {
		return errorResponse(webCtx, err)
	}

	return webCtx.JSONWithCode(ShortenResp{
		ShortID:     created.ShortID,
		ShortURL:    conf.ShortURL(created.ShortID),
		OriginalURL: created.OriginalURL,
	}, http.StatusCreated)
}

// Links 当前使用中的短链接
func (ctl LinkController) Links(webCtx web.Context, svc *link.Service, conf *config.Server) web.Response {
	ids, err := svc.ActiveIDs(requestContext(webCtx))
	if err != nil {
		return errorResponse(webCtx, err)
	}

	links := coll.MustNew(ids).Map(func(id string) LinkResp {
		return LinkResp{ShortID: id, ShortURL: conf.ShortURL(id)}
	}).Items()

	return webCtx.JSON(web.M{"short_urls": ids, "links": links})
}

// Clicks 短链接访问次数
func (ctl LinkController) Clicks(webCtx web.Context, svc *link.Service) web.Response {
	l, err := svc.Get(requestContext(webCtx), webCtx.PathVar("short_id"))
	if err != nil {
		return errorResponse(webCtx, err)
	}

	return webCtx.JSON(web.M{"short_url": l.ShortID, "clicks": l.Clicks})
}

// Delete 删除短链接，标识符进入复用池
func (ctl LinkController) Delete(webCtx web.Context, svc *link.Service) web.Response {
	if err := svc.Delete(requestContext(webCtx), webCtx.PathVar("short_id")); err != nil {
		return errorResponse(webCtx, err)
	}

	return webCtx.JSON(web.M{"message": "Short URL deleted and returned to the pool"})
}

// ReusePool 复用池中的标识符，按释放顺序排列
func (ctl LinkController) ReusePool(webCtx web.Context, svc *link.Service) web.Response {
	ids, err := svc.ReusePool(requestContext(webCtx))
	if err != nil {
		return errorResponse(webCtx, err)
	}

	return webCtx.JSON(web.M{"reuse_pool": ids})
}

func (ctl LinkController) AllocatorStatus(webCtx web.Context, svc *link.Service) web.Response {
	status, err := svc.Status(requestContext(webCtx))
	if err != nil {
		return errorResponse(webCtx, err)
	}

	return webCtx.JSON(status)
}
