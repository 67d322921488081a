package auth

import (
	"html/template"
	"net/http"

	"github.com/goodow/moonauth/internal/observability/logger"
)

// The popup page is what the consent window shows after the callback
// finishes. On success it notifies the opener and closes itself; on failure
// it shows the message and stays open so the user can read it.
var popupTmpl = template.Must(template.New("popup").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>登入</title></head>
<body>
{{if .ErrorMessage}}<p>{{.ErrorMessage}}</p>
{{else}}<script>
if (window.opener && typeof window.opener.__oauthLoginDone === "function") {
  window.opener.__oauthLoginDone();
}
window.close();
</script>
{{end}}</body>
</html>
`))

func writePopup(w http.ResponseWriter, r *http.Request, errorMessage string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := popupTmpl.Execute(w, struct{ ErrorMessage string }{errorMessage}); err != nil {
		logger.From(r.Context()).Error("popup render failed", logger.Err(err))
	}
}
