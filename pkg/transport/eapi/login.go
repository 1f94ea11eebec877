package eapi

import (
	"errors"
	"net/http"

	"github.com/newtron-network/fakeswitches/pkg/auth"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

// Transport is the name audit events and permission checks use.
const Transport = "http"

// RequireLogin wraps h with HTTP basic authentication against checker. An
// anonymous policy lets every request through.
func RequireLogin(h http.Handler, checker *auth.Checker, switchName string) http.Handler {
	if checker == nil || checker.Anonymous() {
		return h
	}
	ctx := auth.NewContext().WithSwitch(switchName).WithTransport(Transport)
	log := util.WithSwitch(switchName).WithField("transport", Transport)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="fakeswitch"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		err := checker.Login(user, password, ctx)
		var permErr *auth.PermissionError
		switch {
		case errors.As(err, &permErr):
			log.Infof("%s denied: %v", user, err)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		case err != nil:
			log.Infof("login failed for %s from %s", user, r.RemoteAddr)
			w.Header().Set("WWW-Authenticate", `Basic realm="fakeswitch"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		h.ServeHTTP(w, r)
	})
}
