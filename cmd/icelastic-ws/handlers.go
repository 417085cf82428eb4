package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const pingTimeout = 5 * time.Second

func (svc *serviceContext) searchHandler(c *gin.Context) {
	if c.Request.URL.RawQuery == "" {
		svc.notFoundHandler(c)
		return
	}

	cl := clientContext{}
	cl.init(c)

	s := searchContext{}
	s.init(svc, &cl)

	cl.logRequest()
	resp := s.handleSearchRequest(c.Request.URL.RawQuery)
	cl.logResponse(resp)

	if resp.err != nil {
		c.JSON(resp.status, errorBody{Error: resp.err.Error(), Status: resp.status})
		return
	}

	c.Data(resp.status, resp.mediaType, resp.body)
}

func (svc *serviceContext) notFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, errorBody{Error: "not found", Status: http.StatusNotFound})
}

func (svc *serviceContext) ignoreHandler(c *gin.Context) {
}

func (svc *serviceContext) versionHandler(c *gin.Context) {
	c.JSON(http.StatusOK, svc.version)
}

func (svc *serviceContext) healthCheckHandler(c *gin.Context) {
	cl := clientContext{}
	cl.init(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	err := svc.backend.Ping(ctx)

	// build response

	type hcResp struct {
		Healthy bool   `json:"healthy"`
		Message string `json:"message,omitempty"`
	}

	hcBackend := hcResp{Healthy: true}
	if err != nil {
		cl.err("backend ping failed: %s", err.Error())
		hcBackend = hcResp{Healthy: false, Message: err.Error()}
	}

	hcMap := make(map[string]hcResp)
	hcMap["backend"] = hcBackend

	hcStatus := http.StatusOK
	if err != nil {
		hcStatus = http.StatusInternalServerError
	}

	c.JSON(hcStatus, hcMap)
}
