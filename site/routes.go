// Package site holds the portfolio route table and the navigation contract
// flows use to leave a form.
package site

import "strings"

// Route names an in-app destination.
type Route string

const (
	RouteHome     Route = "home"
	RouteAbout    Route = "about"
	RoutePrice    Route = "price"
	RouteLogin    Route = "login"
	RouteRegister Route = "register"
	RouteAccount  Route = "account"
	RouteNotFound Route = "not-found"
)

// Entry binds a route name to its URL path.
type Entry struct {
	Route Route
	Path  string
	Title string
}

// Table is the ordered route table served by the site.
var Table = []Entry{
	{Route: RouteHome, Path: "/", Title: "Home"},
	{Route: RouteAbout, Path: "/about", Title: "About"},
	{Route: RoutePrice, Path: "/price", Title: "Pricing"},
	{Route: RouteLogin, Path: "/Login", Title: "Sign in"},
	{Route: RouteRegister, Path: "/Register", Title: "Create account"},
	{Route: RouteAccount, Path: "/account", Title: "Account"},
}

// Path resolves a route to its URL path. Unknown routes resolve to false.
func Path(r Route) (string, bool) {
	for _, e := range Table {
		if e.Route == r {
			return e.Path, true
		}
	}
	return "", false
}

// Lookup resolves a request path to its route. Matching ignores case and a
// trailing slash; anything unmatched is RouteNotFound.
func Lookup(path string) Route {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	for _, e := range Table {
		if strings.EqualFold(e.Path, path) {
			return e.Route
		}
	}
	return RouteNotFound
}
