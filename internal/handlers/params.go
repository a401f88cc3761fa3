package handlers

import (
	"net/http"
	"strconv"
)

// TokenEmailKey is the request-context key the auth middleware stores the
// verified email under.
const TokenEmailKey = "token_email"

func tokenEmail(r *http.Request) string {
	email, _ := r.Context().Value(TokenEmailKey).(string)
	return email
}

func pathID(r *http.Request, name string) (int, error) {
	return strconv.Atoi(r.URL.Query().Get(":" + name))
}
