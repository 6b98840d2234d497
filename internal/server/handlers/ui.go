package handlers

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/repoexplorer/internal/explorer"
	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
	"git.home.luguber.info/inful/repoexplorer/internal/logfields"
)

// uiPageData is rendered by the session page template.
type uiPageData struct {
	View        explorer.View
	ActionError string
	// Refresh reloads the page while a summary, explanation or conversion is still running.
	Refresh bool
}

var sessionPage = template.Must(template.New("session").Parse(sessionHTMLTemplate))

// UIHandlers serves the server-rendered HTML view of a session.
type UIHandlers struct {
	sessions     SessionStore
	logger       *slog.Logger
	errorAdapter *errors.HTTPErrorAdapter
}

// NewUIHandlers creates the HTML view handlers.
func NewUIHandlers(sessions SessionStore, logger *slog.Logger) *UIHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &UIHandlers{sessions: sessions, logger: logger, errorAdapter: errors.NewHTTPErrorAdapter(logger)}
}

// HandleIndex handles GET /: it creates a session and redirects to its page.
func (h *UIHandlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Create()
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	h.logger.Info("Session created", logfields.SessionID(sess.ID()))
	http.Redirect(w, r, "/ui/"+sess.ID(), http.StatusSeeOther)
}

// HandleView handles GET /ui/{id}. Unknown or expired sessions start over.
func (h *UIHandlers) HandleView(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.Get(r.PathValue("id"))
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, sess, "")
}

// HandleAction handles POST /ui/{id}/{action} form submissions and redirects
// back to the session page. Rejected actions re-render the page with the reason.
func (h *UIHandlers) HandleAction(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.Get(r.PathValue("id"))
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		verr := errors.WrapError(err, errors.CategoryValidation, "invalid form submission").Build()
		h.render(w, r, http.StatusBadRequest, sess, verr.Message())
		return
	}

	params := ActionParams{
		Type:     r.PostFormValue("type"),
		Name:     r.PostFormValue("name"),
		Language: r.PostFormValue("language"),
		Code:     r.PostFormValue("code"),
	}
	if err := Dispatch(r.Context(), sess, r.PathValue("action"), params, h.logger); err != nil {
		msg := err.Error()
		if c, ok := errors.AsClassified(err); ok {
			msg = c.Message()
		}
		h.render(w, r, h.errorAdapter.StatusCodeFor(err), sess, msg)
		return
	}
	http.Redirect(w, r, "/ui/"+sess.ID(), http.StatusSeeOther)
}

func (h *UIHandlers) render(w http.ResponseWriter, r *http.Request, status int, sess *explorer.Session, actionErr string) {
	v := sess.Snapshot()
	data := uiPageData{
		View:        v,
		ActionError: actionErr,
		Refresh:     v.Summarizing || v.Explaining || v.Converting,
	}

	var buf bytes.Buffer
	if err := sessionPage.Execute(&buf, data); err != nil {
		internalErr := errors.WrapError(err, errors.CategoryInternal, "failed to render session page").Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("failed writing session page", logfields.Error(err))
	}
}

const sessionHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    {{if .Refresh}}<meta http-equiv="refresh" content="2">{{end}}
    <title>GitHub Repository Explorer</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 0; padding: 20px; background: #f5f5f5; }
        .container { max-width: 1200px; margin: 0 auto; background: white; padding: 30px; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
        h1 { color: #333; border-bottom: 2px solid #007acc; padding-bottom: 10px; }
        .error { background: #fdecea; color: #b71c1c; padding: 10px 15px; border-radius: 4px; margin: 15px 0; }
        .panel { background: #f8f9fa; padding: 15px 20px; border-radius: 6px; border-left: 4px solid #007acc; margin: 15px 0; white-space: pre-wrap; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(280px, 1fr)); gap: 15px; }
        .card { border: 1px solid #ddd; border-radius: 6px; padding: 12px; }
        .meta { color: #666; font-size: 0.9em; }
        pre { background: #272822; color: #f8f8f2; padding: 15px; border-radius: 6px; overflow-x: auto; }
        textarea { width: 100%; min-height: 240px; font-family: monospace; }
        form.inline { display: inline; }
        ul.entries { list-style: none; padding: 0; }
        ul.entries li { padding: 4px 0; }
        button.link { background: none; border: none; color: #007acc; cursor: pointer; padding: 0; font-size: 1em; }
    </style>
</head>
<body>
<div class="container">
    <h1>GitHub Repository Explorer</h1>
    {{$id := .View.SessionID}}

    <form class="inline" method="post" action="/ui/{{$id}}/search-type">
        <label><input type="radio" name="type" value="user" {{if eq (print .View.SearchType) "user"}}checked{{end}} onchange="this.form.submit()"> User</label>
        <label><input type="radio" name="type" value="org" {{if eq (print .View.SearchType) "org"}}checked{{end}} onchange="this.form.submit()"> Organization</label>
        <noscript><button type="submit">Switch</button></noscript>
    </form>

    <form method="post" action="/ui/{{$id}}/search">
        <input type="text" name="name" value="{{.View.Username}}" placeholder="{{.View.InputPlaceholder}}">
        <button type="submit">Search {{.View.TitleType}}</button>
    </form>

    {{if .ActionError}}<div class="error">{{.ActionError}}</div>{{end}}
    {{if .View.Error}}<div class="error">{{.View.Error}}</div>{{end}}
    {{if .View.Loading}}<p class="meta">Loading...</p>{{end}}

    {{if .View.SelectedRepo}}
        <h2>{{.View.NavigationTitle}}</h2>
        <form class="inline" method="post" action="/ui/{{$id}}/back"><button type="submit">Back to repositories</button></form>
        {{if .View.CurrentPath}}<form class="inline" method="post" action="/ui/{{$id}}/up"><button type="submit">Up</button></form>{{end}}

        {{if .View.Summary}}<div class="panel">{{.View.Summary}}</div>{{end}}

        {{if .View.HasFile}}
            <h3>{{.View.FileName}} <span class="meta">({{.View.SourceLanguage}})</span></h3>
            <form class="inline" method="post" action="/ui/{{$id}}/close-file"><button type="submit">Close file</button></form>
            <pre>{{.View.FileContent}}</pre>
            <h3>Explanation</h3>
            <div class="panel">{{.View.Explanation}}</div>

            {{if .View.IsProgramFile}}
                <h3>Convert</h3>
                <form class="inline" method="post" action="/ui/{{$id}}/target-language">
                    <select name="language" onchange="this.form.submit()">
                    {{$target := .View.TargetLanguage}}
                    {{range .View.ConversionTargets}}<option value="{{.}}" {{if eq . $target}}selected{{end}}>{{.}}</option>{{end}}
                    </select>
                    <noscript><button type="submit">Set</button></noscript>
                </form>
                <form class="inline" method="post" action="/ui/{{$id}}/convert">
                    <button type="submit" {{if .View.Converting}}disabled{{end}}>Convert {{.View.SourceLanguage}} to {{.View.TargetLanguage}}</button>
                </form>
                {{if .View.ConvertedCode}}
                <form method="post" action="/ui/{{$id}}/edit-converted">
                    <textarea name="code">{{.View.ConvertedCode}}</textarea>
                    <button type="submit">Save edits</button>
                </form>
                {{end}}
            {{end}}
        {{else}}
            <ul class="entries">
            {{range .View.Entries}}
                <li>
                    <form class="inline" method="post" action="/ui/{{$id}}/open">
                        <input type="hidden" name="name" value="{{.Path}}">
                        <button class="link" type="submit">{{if .IsDir}}&#128193;{{else}}&#128196;{{end}} {{.Name}}</button>
                    </form>
                </li>
            {{end}}
            </ul>
        {{end}}
    {{else}}
        <div class="grid">
        {{range .View.Repositories}}
            <div class="card">
                <form method="post" action="/ui/{{$id}}/select-repo">
                    <input type="hidden" name="name" value="{{.FullName}}">
                    <button class="link" type="submit"><strong>{{.Name}}</strong></button>
                </form>
                <p>{{.Description}}</p>
                <p class="meta">{{if .Language}}{{.Language}} &middot; {{end}}&#9733; {{.Stars}} &middot; forks {{.Forks}}</p>
            </div>
        {{end}}
        </div>
    {{end}}
</div>
</body>
</html>`
