package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

type clientContext struct {
	reqID  string       // taken from the caller or generated
	start  time.Time    // internally set
	ginCtx *gin.Context // gin context
	logger *log.Entry   // carries req_id
}

func (c *clientContext) init(ctx *gin.Context) {
	c.ginCtx = ctx
	c.start = time.Now()

	c.reqID = strings.TrimSpace(ctx.GetHeader(requestIDHeader))
	if c.reqID == "" {
		c.reqID = strings.Split(uuid.New().String(), "-")[0]
	}

	ctx.Header(requestIDHeader, c.reqID)

	c.logger = log.WithField("req_id", c.reqID)
}

func (c *clientContext) logRequest() {
	query := ""
	if c.ginCtx.Request.URL.RawQuery != "" {
		query = fmt.Sprintf("?%s", c.ginCtx.Request.URL.RawQuery)
	}

	c.log("[REQUEST] %s %s%s", c.ginCtx.Request.Method, c.ginCtx.Request.URL.Path, query)
}

func (c *clientContext) logResponse(resp searchResponse) {
	msg := fmt.Sprintf("[RESPONSE] status: %d", resp.status)

	if resp.err != nil {
		msg = msg + fmt.Sprintf(", error: %s", resp.err.Error())
	}

	msg = msg + fmt.Sprintf(", elapsed: %d (ms)", int64(time.Since(c.start)/time.Millisecond))

	c.log("%s", msg)
}

func (c *clientContext) log(format string, args ...interface{}) {
	c.logger.Infof(format, args...)
}

func (c *clientContext) warn(format string, args ...interface{}) {
	c.logger.Warnf(format, args...)
}

func (c *clientContext) err(format string, args ...interface{}) {
	c.logger.Errorf(format, args...)
}
