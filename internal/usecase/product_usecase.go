package usecase

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain/model"
	"storefront/internal/timer"
)

type CatalogAPI interface {
	ListProducts(ctx context.Context, q model.ProductQuery) (model.ProductList, error)
	GetProduct(ctx context.Context, id int64) (model.Product, error)
	ListAnnouncements(ctx context.Context) ([]model.Announcement, error)
	ListCarousel(ctx context.Context) ([]model.CarouselSlide, error)
}

// ProductUsecase は公開カタログ（商品・告知・カルーセル）
type ProductUsecase struct {
	api CatalogAPI
	log *zap.Logger

	announcements Slider
	carousel      Slider
}

// DI
func NewProductUsecase(api CatalogAPI, log *zap.Logger) *ProductUsecase {
	return &ProductUsecase{api: api, log: log}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	Category string
	Sort     string
}

// SlideList はスライダーの中身と今の位置
type SlideList[T any] struct {
	Items   []T `json:"data"`
	Current int `json:"current_index"`
}

func (u *ProductUsecase) List(ctx context.Context, in ListProductsInput) (model.ProductList, error) {
	if in.Page < 1 {
		return model.ProductList{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return model.ProductList{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return model.ProductList{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	switch in.Sort {
	case "", "newest", "price_asc", "price_desc":
	default:
		return model.ProductList{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	out, err := u.api.ListProducts(ctx, model.ProductQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        strings.TrimSpace(in.Q),
		Category: strings.TrimSpace(in.Category),
		Sort:     in.Sort,
	})
	if err != nil {
		return model.ProductList{}, fromAPIError(err)
	}
	return out, nil
}

func (u *ProductUsecase) Get(ctx context.Context, id int64) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	p, err := u.api.GetProduct(ctx, id)
	if err != nil {
		return model.Product{}, fromAPIError(err)
	}
	return p, nil
}

// Announcements は有効な告知を並び順で返す
func (u *ProductUsecase) Announcements(ctx context.Context) (SlideList[model.Announcement], error) {
	all, err := u.api.ListAnnouncements(ctx)
	if err != nil {
		return SlideList[model.Announcement]{}, fromAPIError(err)
	}

	items := make([]model.Announcement, 0, len(all))
	for _, a := range all {
		if a.IsActive {
			items = append(items, a)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].SortOrder < items[j].SortOrder })

	u.announcements.SetCount(len(items))
	return SlideList[model.Announcement]{Items: items, Current: u.announcements.Current()}, nil
}

// Carousel は有効なスライドを並び順で返す
func (u *ProductUsecase) Carousel(ctx context.Context) (SlideList[model.CarouselSlide], error) {
	all, err := u.api.ListCarousel(ctx)
	if err != nil {
		return SlideList[model.CarouselSlide]{}, fromAPIError(err)
	}

	items := make([]model.CarouselSlide, 0, len(all))
	for _, s := range all {
		if s.IsActive {
			items = append(items, s)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].SortOrder < items[j].SortOrder })

	u.carousel.SetCount(len(items))
	return SlideList[model.CarouselSlide]{Items: items, Current: u.carousel.Current()}, nil
}

// StartSliders は自動送りを始める
func (u *ProductUsecase) StartSliders(d time.Duration, newTicker timer.TickerFactory) {
	u.announcements.Start(d, newTicker)
	u.carousel.Start(d, newTicker)
}

// StopSliders はシャットダウン時に止める
func (u *ProductUsecase) StopSliders() {
	u.announcements.Stop()
	u.carousel.Stop()
}
