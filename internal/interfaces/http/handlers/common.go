package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/turtacn/ClubDues/internal/interfaces/http/response"
	"github.com/turtacn/ClubDues/pkg/errors"
	"github.com/turtacn/ClubDues/pkg/types/common"
)

// maxJSONBody bounds admin request bodies.
const maxJSONBody = 1 << 20

var validate = validator.New()

// decodeJSON reads a JSON body into dst and runs struct validation.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && err != io.EOF {
		return errors.InvalidParam("invalid request body").WithDetail(err.Error())
	}
	return validateStruct(dst)
}

// validateStruct turns validator failures into one validation error naming
// every offending field.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.InvalidParam("invalid request").WithDetail(err.Error())
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return errors.InvalidParam("invalid request").WithDetail(strings.Join(parts, "; "))
}

// parsePagination extracts page and page_size from query parameters.
func parsePagination(r *http.Request) common.Pagination {
	p := common.Pagination{}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Page = n
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= common.MaxPageSize {
			p.PageSize = n
		}
	}
	return p.Normalize()
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	response.JSON(w, statusCode, data)
}

func writeAppError(w http.ResponseWriter, err error) {
	response.Error(w, err)
}

//Personal.AI order the ending
