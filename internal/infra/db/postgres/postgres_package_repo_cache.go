package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dadyutenga/voucher/internal/domain/model"
	"github.com/dadyutenga/voucher/internal/domain/ports/repository"
	"github.com/dadyutenga/voucher/internal/infra/metrics"
	red "github.com/dadyutenga/voucher/internal/infra/redis"
)

var _ repository.PackageRepository = (*packageRepoCacheDecorator)(nil)

// packageRepoCacheDecorator caches the catalog in Redis. The splash page
// hits the active-package list on every load, so it is the hottest read in
// the system; writes invalidate.
type packageRepoCacheDecorator struct {
	inner repository.PackageRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPackageRepoCacheDecorator(inner repository.PackageRepository, cache red.RedisClient, ttl time.Duration) repository.PackageRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &packageRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}
}

func (d *packageRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Package, error) {
	key := fmt.Sprintf("package:%s", id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("package", "hit")
		var p model.Package
		if json.Unmarshal([]byte(val), &p) == nil {
			return &p, nil
		}
	}

	metrics.IncCacheRequest("package", "miss")
	p, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if p != nil {
		bytes, _ := json.Marshal(p)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return p, nil
}

func (d *packageRepoCacheDecorator) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Package, error) {
	const key = "packages:active"
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("package_list", "hit")
		var ps []*model.Package
		if json.Unmarshal([]byte(val), &ps) == nil {
			return ps, nil
		}
	}

	metrics.IncCacheRequest("package_list", "miss")
	ps, err := d.inner.ListActive(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(ps) > 0 {
		bytes, _ := json.Marshal(ps)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return ps, nil
}

// ListAll is admin-only traffic; always read through.
func (d *packageRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Package, error) {
	return d.inner.ListAll(ctx, tx)
}

// Write operations invalidate both the per-id entry and the active list.
func (d *packageRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, p *model.Package) error {
	d.cache.Del(ctx, fmt.Sprintf("package:%s", p.ID))
	d.cache.Del(ctx, "packages:active")
	return d.inner.Save(ctx, tx, p)
}

func (d *packageRepoCacheDecorator) Delete(ctx context.Context, tx repository.Tx, id string) error {
	d.cache.Del(ctx, fmt.Sprintf("package:%s", id))
	d.cache.Del(ctx, "packages:active")
	return d.inner.Delete(ctx, tx, id)
}
