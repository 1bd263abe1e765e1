package handler

import (
	"net/http"
	"strconv"

	restmiddleware "lodging-backoffice/internal/presentation/rest/middleware"

	"github.com/labstack/echo/v4"
)

// operatorFromToken トークンから事業者IDを取得
func operatorFromToken(c echo.Context) (int64, error) {
	operatorID, ok := restmiddleware.OperatorID(c)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "operator_id not found in token")
	}
	return operatorID, nil
}

// pathID 正の整数のパスパラメータを取得
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
	}
	return id, nil
}

// queryInt 省略可能な整数のクエリパラメータを取得（省略時は0）
func queryInt(c echo.Context, name string) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be an integer")
	}
	return n, nil
}
