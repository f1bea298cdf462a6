// Package handler holds the gin handlers for the loopback callback server.
package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/ifitclub/ifit-agent/internal/deeplink"
)

const successPage = `<!DOCTYPE html>
<html><head><title>iFit Club</title></head>
<body><h2>Signed in</h2><p>You can close this tab and return to the app.</p></body></html>`

const errorPage = `<!DOCTYPE html>
<html><head><title>iFit Club</title></head>
<body><h2>Sign-in failed</h2><p>You can close this tab and try again from the app.</p></body></html>`

// CallbackHandler receives the provider's browser redirect and republishes
// it as an app-scheme URL on the hub, which is where the link listener
// picks it up. The HTTP response only tells the human what happened; the
// app learns about it through the hub.
func CallbackHandler(scheme string, hub *deeplink.Hub, onReceived func()) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Request.URL.Query()
		params := paramsFromQuery(query)

		route := "auth-success"
		page := successPage
		if params.Error != nil {
			route = "auth-error"
			page = errorPage
		}

		raw := scheme + "://" + route
		if encoded := deeplink.EncodeQuery(params); encoded != "" {
			raw += "?" + encoded
		}

		if onReceived != nil {
			onReceived()
		}
		hub.Publish(raw)

		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, page)
	}
}

// paramsFromQuery lifts the recognized callback fields out of the redirect
// query, preserving the present-but-empty versus absent distinction.
func paramsFromQuery(query url.Values) deeplink.Params {
	var params deeplink.Params
	get := func(key string) *string {
		if !query.Has(key) {
			return nil
		}
		v := query.Get(key)
		return &v
	}
	params.AthleteID = get("athleteId")
	params.Token = get("token")
	params.FirstName = get("firstName")
	params.LastName = get("lastName")
	params.Profile = get("profile")
	params.Error = get("error")
	return params
}
