// Package views renders the portal's HTML pages as templ components.
package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/a-h/templ"

	appI18n "github.com/pavelanni/smartstudy/internal/i18n"
	"github.com/pavelanni/smartstudy/internal/model"
	"github.com/pavelanni/smartstudy/internal/practice"
)

// Crumb is one breadcrumb. MsgID, when set, is translated instead of Label.
type Crumb struct {
	Label   string
	MsgID   string
	Href    string
	Current bool
}

// Page carries what every full page needs.
type Page struct {
	Title  string
	User   *model.User
	Crumbs []Crumb
}

// StudentView is the data for a student's page within a class.
type StudentView struct {
	Class       model.Class
	Student     model.User
	Profile     *model.Profile
	Assignments []model.Assignment
	CanUpload   bool
	Message     string
}

// ProfileView is the data for the profile page.
type ProfileView struct {
	Profile  model.Profile
	Editable bool
	Message  string
}

// AssignmentView is the data for an assignment page and its question card.
type AssignmentView struct {
	Assignment model.Assignment
	// ActionBase is the assignment page path; practice actions post below it.
	ActionBase    string
	Title         string
	Question      *practice.Question
	Invalid       bool
	CanRegenerate bool
	Message       string
}

const styles = `body{font-family:system-ui,sans-serif;max-width:60rem;margin:0 auto;padding:1rem}
nav.top{display:flex;gap:1rem;align-items:center;border-bottom:1px solid #ddd;padding-bottom:.5rem}
nav.top .spacer{flex:1}
ol.crumbs{list-style:none;display:flex;gap:.5rem;padding:0}
ol.crumbs li+li:before{content:"/";padding-right:.5rem;color:#888}
.card{border:1px solid #ddd;border-radius:.5rem;padding:1rem;margin:1rem 0}
.correct{color:#16794c}.incorrect{color:#b42318}.indeterminate{color:#8a6d00}
.flash{background:#eef6ff;padding:.5rem}
.badge{display:inline-block;margin-left:.5rem;padding:.1rem .5rem;border-radius:1rem;background:#f2e8ff}
li small{margin-left:.5rem}
label{display:block;margin:.5rem 0}`

var stylesheet = templ.Raw("<style>" + styles + "</style>")

var userRoles = []model.UserRole{model.UserRoleStudent, model.UserRoleTeacher, model.UserRoleAdmin}

func tr(ctx context.Context, msgID string) string {
	return appI18n.T(ctx, msgID)
}

// url prefixes an absolute portal path with the base path.
func url(ctx context.Context, path string) string {
	return model.BasePathFromContext(ctx) + path
}

func pageTitle(ctx context.Context, title string) string {
	if title == "" {
		return tr(ctx, "AppTitle")
	}
	return title + " - " + tr(ctx, "AppTitle")
}

func crumbLabel(ctx context.Context, c Crumb) string {
	if c.MsgID != "" {
		return tr(ctx, c.MsgID)
	}
	return c.Label
}

func questionHeading(ctx context.Context, title string) string {
	if title == "" {
		return tr(ctx, "PracticeQuestion")
	}
	return tr(ctx, "PracticeQuestion") + ": " + title
}

func badgeLabel(ctx context.Context, tier int) string {
	return appI18n.Td(ctx, "BadgeTierN", map[string]any{"Tier": tier})
}

func correctAnswerLine(ctx context.Context, answer string) string {
	return appI18n.Td(ctx, "CorrectAnswerIs", map[string]any{"Answer": answer})
}

func displayName(u model.User) string {
	if strings.TrimSpace(u.DisplayName) != "" {
		return u.DisplayName
	}
	return u.Username
}

func className(c model.Class) string {
	if c.Name == "" {
		return c.ID
	}
	return c.Name
}

func assignmentTitle(a model.Assignment) string {
	if a.Title == "" {
		return a.FileName
	}
	return a.Title
}

func pathf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
