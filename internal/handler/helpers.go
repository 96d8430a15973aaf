package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"

	"posync/internal/apierror"
	"posync/internal/engine"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(apierror.CodeBadRequest, "JSON invalido: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(apierror.CodeBadRequest, "Parametros invalidos: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

func runValidation(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(apierror.CodeBadRequest, err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// lineParam parses the :line path segment.
func lineParam(c *gin.Context) (int, bool) {
	line, err := strconv.Atoi(c.Param("line"))
	if err != nil || line < 0 {
		c.JSON(http.StatusBadRequest, apierror.New(apierror.CodeBadRequest, "Linea invalida"))
		return 0, false
	}
	return line, true
}

// respondError maps engine errors to client errors. Anything else goes to
// middleware.ErrorHandler.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		c.JSON(http.StatusNotFound, apierror.New(apierror.CodeNotFound, "Registro no encontrado"))
	case errors.Is(err, engine.ErrUnknownCollection):
		c.JSON(http.StatusNotFound, apierror.New(apierror.CodeNotFound, "Coleccion desconocida"))
	case errors.Is(err, engine.ErrInvalidLine):
		c.JSON(http.StatusBadRequest, apierror.New(apierror.CodeBadRequest, err.Error()))
	case errors.Is(err, engine.ErrNoStore):
		c.JSON(http.StatusConflict, apierror.New(apierror.CodeNoStore, "No hay local seleccionado"))
	default:
		_ = c.Error(err)
	}
}
