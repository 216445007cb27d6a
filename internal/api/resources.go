package api

import (
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-flood-alerts/internal/repository"
)

// ResourceRoutes exposes one plain CRUD table: public reads, admin writes.
type ResourceRoutes struct {
	Path     string
	register func(public, admin *gin.RouterGroup)
}

// TableRoutes builds the routes for t under /api/<path>.
func TableRoutes[T any](path string, t *repository.Table[T]) ResourceRoutes {
	base := "/" + path
	return ResourceRoutes{
		Path: path,
		register: func(public, admin *gin.RouterGroup) {
			public.GET(base, func(c *gin.Context) {
				limit, offset := pagination(c)
				rows, err := t.List(c.Request.Context(), limit, offset)
				if err != nil {
					respondError(c, err, "failed to fetch "+path)
					return
				}
				c.JSON(http.StatusOK, rows)
			})

			public.GET(base+"/:id", func(c *gin.Context) {
				id, ok := parseID(c)
				if !ok {
					return
				}
				row, err := t.Get(c.Request.Context(), id)
				if err != nil {
					respondError(c, err, "failed to fetch "+path)
					return
				}
				c.JSON(http.StatusOK, row)
			})

			admin.POST(base, func(c *gin.Context) {
				var row T
				if err := c.ShouldBindJSON(&row); err != nil {
					badRequest(c, err.Error())
					return
				}
				clearID(&row)
				if err := t.Create(c.Request.Context(), &row); err != nil {
					respondError(c, err, "failed to create "+path)
					return
				}
				c.JSON(http.StatusCreated, row)
			})

			admin.PUT(base+"/:id", func(c *gin.Context) {
				id, ok := parseID(c)
				if !ok {
					return
				}
				var row T
				if err := c.ShouldBindJSON(&row); err != nil {
					badRequest(c, err.Error())
					return
				}
				clearID(&row)
				updated, err := t.Update(c.Request.Context(), id, &row)
				if err != nil {
					respondError(c, err, "failed to update "+path)
					return
				}
				c.JSON(http.StatusOK, updated)
			})

			admin.DELETE(base+"/:id", func(c *gin.Context) {
				id, ok := parseID(c)
				if !ok {
					return
				}
				if err := t.Delete(c.Request.Context(), id); err != nil {
					respondError(c, err, "failed to delete "+path)
					return
				}
				c.Status(http.StatusNoContent)
			})
		},
	}
}

// clearID drops a client-supplied primary key so the database assigns one.
func clearID(row any) {
	v := reflect.ValueOf(row).Elem()
	if v.Kind() != reflect.Struct {
		return
	}
	if f := v.FieldByName("ID"); f.IsValid() && f.CanSet() && f.Kind() == reflect.Uint {
		f.SetUint(0)
	}
}
