package server

import (
	"context"
	"net/http"

	"github.com/colonyops/techtrack/internal/core/tech"
)

func contextWithItem(ctx context.Context, it tech.Item) context.Context {
	return context.WithValue(ctx, itemKey, it)
}

func itemFrom(r *http.Request) tech.Item {
	it, _ := r.Context().Value(itemKey).(tech.Item)
	return it
}
