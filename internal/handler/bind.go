package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// BindRecord decodes a JSON object body. A null body yields an empty record.
func BindRecord(c *gin.Context) (model.Record, error) {
	var body model.Record
	if err := c.ShouldBindJSON(&body); err != nil {
		return nil, apperrors.Validation("request body must be a JSON object", err)
	}
	if body == nil {
		body = model.Record{}
	}
	return body, nil
}
