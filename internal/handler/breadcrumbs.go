package handler

import (
	"strings"

	"github.com/pavelanni/smartstudy/internal/handler/views"
)

// Breadcrumbs derives the navigation trail for a portal path. The trail
// always starts at Home, repeated labels are collapsed and the last crumb is
// the current page.
func Breadcrumbs(path string) []views.Crumb {
	crumbs := []views.Crumb{{MsgID: "Home", Href: "/"}}
	add := func(c views.Crumb) {
		last := crumbs[len(crumbs)-1]
		if last.MsgID == c.MsgID && last.Label == c.Label {
			return
		}
		crumbs = append(crumbs, c)
	}

	segs := strings.Split(strings.Trim(path, "/"), "/")
	href := ""
	for i := 0; i < len(segs); i++ {
		seg := segs[i]
		if seg == "" {
			continue
		}
		href += "/" + seg
		switch seg {
		case "classes":
			add(views.Crumb{MsgID: "ClassList", Href: "/classes"})
		case "class":
			add(views.Crumb{MsgID: "ClassList", Href: "/classes"})
			if i+1 < len(segs) {
				i++
				href += "/" + segs[i]
				add(views.Crumb{Label: segs[i], Href: href})
			}
		case "student":
			if i+1 < len(segs) {
				i++
				href += "/" + segs[i]
			}
			add(views.Crumb{MsgID: "Student", Href: href})
		case "assignment", "assignments":
			if i+1 < len(segs) {
				i++
				href += "/" + segs[i]
			}
			add(views.Crumb{MsgID: "Assignment", Href: href})
		case "profile":
			if i+1 < len(segs) {
				i++
				href += "/" + segs[i]
			}
			add(views.Crumb{MsgID: "Profile", Href: href})
		case "admin":
			if i+1 < len(segs) {
				i++
				href += "/" + segs[i]
				switch segs[i] {
				case "users":
					add(views.Crumb{MsgID: "AdminUsers", Href: href})
				case "classes":
					add(views.Crumb{MsgID: "AdminClasses", Href: href})
				}
			}
		default:
			// Practice actions and unknown segments add nothing.
		}
	}
	crumbs[len(crumbs)-1].Current = true
	return crumbs
}
