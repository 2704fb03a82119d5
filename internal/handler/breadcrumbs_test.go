package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pavelanni/smartstudy/internal/handler/views"
)

func TestBreadcrumbs(t *testing.T) {
	tests := []struct {
		path string
		want []views.Crumb
	}{
		{"/", []views.Crumb{{MsgID: "Home", Href: "/", Current: true}}},
		{"/classes", []views.Crumb{
			{MsgID: "Home", Href: "/"},
			{MsgID: "ClassList", Href: "/classes", Current: true},
		}},
		{"/class/c1", []views.Crumb{
			{MsgID: "Home", Href: "/"},
			{MsgID: "ClassList", Href: "/classes"},
			{Label: "c1", Href: "/class/c1", Current: true},
		}},
		{"/class/c1/student/u002/assignment/a001", []views.Crumb{
			{MsgID: "Home", Href: "/"},
			{MsgID: "ClassList", Href: "/classes"},
			{Label: "c1", Href: "/class/c1"},
			{MsgID: "Student", Href: "/class/c1/student/u002"},
			{MsgID: "Assignment", Href: "/class/c1/student/u002/assignment/a001", Current: true},
		}},
		{"/class/c1/student/u002/assignment/a001/check", []views.Crumb{
			{MsgID: "Home", Href: "/"},
			{MsgID: "ClassList", Href: "/classes"},
			{Label: "c1", Href: "/class/c1"},
			{MsgID: "Student", Href: "/class/c1/student/u002"},
			{MsgID: "Assignment", Href: "/class/c1/student/u002/assignment/a001", Current: true},
		}},
		{"/classes/classes", []views.Crumb{
			{MsgID: "Home", Href: "/"},
			{MsgID: "ClassList", Href: "/classes", Current: true},
		}},
		{"/admin/users", []views.Crumb{
			{MsgID: "Home", Href: "/"},
			{MsgID: "AdminUsers", Href: "/admin/users", Current: true},
		}},
		{"/profile/u002", []views.Crumb{
			{MsgID: "Home", Href: "/"},
			{MsgID: "Profile", Href: "/profile/u002", Current: true},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Breadcrumbs(tt.path))
		})
	}
}
