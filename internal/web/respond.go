package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ok writes the success envelope with any extra payload keys.
func ok(c *gin.Context, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// fail writes the failure envelope.
func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// failErr maps a service error onto the envelope. "not found" errors become
// 404, everything else is the caller's fault until proven otherwise.
func failErr(c *gin.Context, err error) {
	status := http.StatusBadRequest
	if strings.Contains(err.Error(), "not found") {
		status = http.StatusNotFound
	}
	fail(c, status, err.Error())
}

// idParam parses the named path parameter as an ID. On failure it writes the
// 400 envelope and reports false.
func idParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || v == 0 {
		fail(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(v), true
}

// uintQuery parses an optional query parameter as an ID filter.
func uintQuery(c *gin.Context, name string) *uint {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil
	}
	id := uint(v)
	return &id
}

// bindJSON decodes the request body, writing the 400 envelope on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
