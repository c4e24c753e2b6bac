package productrepo

import (
	"context"
	"encoding/json"
	"fmt"

	"gocatalog/internal/domain"
	"gocatalog/internal/pkg/cache"
)

const (
	productCachePrefix = "product:"
	productCacheKey    = productCachePrefix + "%s"
)

// CacheKey é a chave do agregado no Redis.
func CacheKey(id string) string {
	return fmt.Sprintf(productCacheKey, id)
}

// snapshot é a forma serializada do agregado. As referências de volta
// (variante -> produto, valor -> atributo) não vão para o JSON, então os
// atributos viajam à parte e são religados em restore.
type snapshot struct {
	Product    *domain.Product     `json:"product"`
	Attributes []*domain.Attribute `json:"attributes"`
}

func newSnapshot(p *domain.Product) snapshot {
	seen := map[string]bool{}
	var attrs []*domain.Attribute
	for _, v := range p.Variants {
		for _, val := range v.AttributeValues {
			if val.Attribute == nil || seen[val.Attribute.ID] {
				continue
			}
			seen[val.Attribute.ID] = true
			shallow := *val.Attribute
			shallow.Values = nil
			attrs = append(attrs, &shallow)
		}
	}
	return snapshot{Product: p, Attributes: attrs}
}

func (s snapshot) restore() *domain.Product {
	p := s.Product
	attrs := make(map[string]*domain.Attribute, len(s.Attributes))
	for _, a := range s.Attributes {
		attrs[a.ID] = a
	}
	for _, v := range p.Variants {
		v.Product = p
		for _, val := range v.AttributeValues {
			val.Attribute = attrs[val.AttributeID]
		}
	}
	return p
}

func (r *ProductRepository) readCache(ctx context.Context, id string) (*domain.Product, bool) {
	data, err := r.Cache.Get(ctx, CacheKey(id))
	if err != nil {
		if err != cache.ErrCacheMiss {
			r.logger.Warn("Falha ao ler produto do cache.", map[string]interface{}{"product_id": id, "error": err.Error()})
		}
		return nil, false
	}
	var s snapshot
	if err := json.Unmarshal([]byte(data), &s); err != nil || s.Product == nil {
		r.logger.Warn("Snapshot de produto inválido no cache.", map[string]interface{}{"product_id": id})
		return nil, false
	}
	return s.restore(), true
}

func (r *ProductRepository) writeCache(ctx context.Context, p *domain.Product) {
	data, err := json.Marshal(newSnapshot(p))
	if err != nil {
		r.logger.Warn("Falha ao serializar produto para o cache.", map[string]interface{}{"product_id": p.ID, "error": err.Error()})
		return
	}
	if err := r.Cache.Set(ctx, CacheKey(p.ID), data, r.CacheTTL); err != nil {
		r.logger.Warn("Falha ao gravar produto no cache.", map[string]interface{}{"product_id": p.ID, "error": err.Error()})
	}
}

func (r *ProductRepository) invalidate(ctx context.Context, id string) {
	if err := r.Cache.Delete(ctx, CacheKey(id)); err != nil {
		r.logger.Warn("Falha ao invalidar produto no cache.", map[string]interface{}{"product_id": id, "error": err.Error()})
	}
}

// InvalidateAll descarta todos os snapshots de produto. Usado quando um dado
// compartilhado entre produtos (atributos, valores) muda.
func (r *ProductRepository) InvalidateAll(ctx context.Context) error {
	if err := r.Cache.DeleteByPrefix(ctx, productCachePrefix); err != nil {
		r.logger.Warn("Falha ao invalidar snapshots de produto.", map[string]interface{}{"error": err.Error()})
		return err
	}
	r.logger.Debug("Snapshots de produto invalidados.", nil)
	return nil
}
