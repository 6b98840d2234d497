package handlers

import (
	"context"
	"log/slog"
	"slices"

	"git.home.luguber.info/inful/repoexplorer/internal/explorer"
	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
	"git.home.luguber.info/inful/repoexplorer/internal/github"
	"git.home.luguber.info/inful/repoexplorer/internal/logfields"
)

// Action names accepted by Dispatch.
const (
	ActionSearchType     = "search-type"
	ActionSearch         = "search"
	ActionSelectRepo     = "select-repo"
	ActionOpen           = "open"
	ActionUp             = "up"
	ActionCloseFile      = "close-file"
	ActionBack           = "back"
	ActionTargetLanguage = "target-language"
	ActionSourceLanguage = "source-language"
	ActionConvert        = "convert"
	ActionEditConverted  = "edit-converted"
	ActionWait           = "wait"
)

// Actions lists every action name in a stable order.
var Actions = []string{
	ActionSearchType, ActionSearch, ActionSelectRepo, ActionOpen, ActionUp, ActionCloseFile,
	ActionBack, ActionTargetLanguage, ActionSourceLanguage, ActionConvert, ActionEditConverted, ActionWait,
}

// ActionParams carries the parameters of one action. Each action reads only
// the fields it needs.
type ActionParams struct {
	Type     string `json:"type,omitempty"`
	Name     string `json:"name,omitempty"`
	Language string `json:"language,omitempty"`
	Code     string `json:"code,omitempty"`
}

// Dispatch applies action to sess.
//
// Only malformed requests are returned as errors: unknown actions, bad
// parameters, and names that do not match a listed repository or entry.
// Upstream failures are part of the session view (its error message and
// fallback texts), so they are logged here and not returned.
func Dispatch(ctx context.Context, sess *explorer.Session, action string, p ActionParams, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	var err error
	switch action {
	case ActionSearchType:
		kind, perr := github.ParseOwnerKind(p.Type)
		if perr != nil {
			return errors.WrapError(perr, errors.CategoryValidation, "invalid search type").
				WithContext("type", p.Type).
				Build()
		}
		sess.SetSearchType(kind)
	case ActionSearch:
		err = sess.FetchRepos(ctx, p.Name)
	case ActionSelectRepo:
		repo, ok := sess.FindRepository(p.Name)
		if !ok {
			return errors.NotFoundError("repository is not in the current list").
				WithContext("name", p.Name).
				Build()
		}
		err = sess.OpenRepository(ctx, repo, "")
	case ActionOpen:
		entry, ok := sess.FindEntry(p.Name)
		if !ok {
			return errors.NotFoundError("entry is not in the current directory").
				WithContext("name", p.Name).
				Build()
		}
		err = sess.OpenEntry(ctx, entry)
	case ActionUp:
		err = sess.GoUpDirectory(ctx)
	case ActionCloseFile:
		sess.ClearFileContent()
	case ActionBack:
		sess.ClearSelectedRepo()
	case ActionTargetLanguage:
		return sess.SetTargetLanguage(p.Language)
	case ActionSourceLanguage:
		sess.SetSourceLanguage(p.Language)
	case ActionConvert:
		err = sess.ConvertCode(ctx)
	case ActionEditConverted:
		sess.EditConvertedCode(p.Code)
	case ActionWait:
		sess.Wait()
	default:
		return errors.ValidationError("unknown action").
			WithContext("action", action).
			WithContext("valid", Actions).
			Build()
	}

	if err != nil {
		logger.Debug("Session action finished with error",
			logfields.SessionID(sess.ID()),
			logfields.Operation(action),
			logfields.Error(err))
	}
	return nil
}

// IsAction reports whether name is a known action.
func IsAction(name string) bool {
	return slices.Contains(Actions, name)
}
