package server

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
)

// jsonSerializer implements echo.JSONSerializer with goccy/go-json.
type jsonSerializer struct{}

func (jsonSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsonSerializer) Deserialize(c echo.Context, i interface{}) error {
	if err := json.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body: "+err.Error()).SetInternal(err)
	}
	return nil
}
