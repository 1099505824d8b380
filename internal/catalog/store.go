// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package catalog

import "context"

type Repository interface {
	ListAll(context context.Context) ([]*Entity, error)
	GetByID(context context.Context, id string) (*Entity, error)
	Search(context context.Context, query string, limit int) ([]*Entity, error)
	AddAlias(context context.Context, id string, alias string) error
}
