package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const pageSize = 20

// listPage is the API's paginated list envelope.
type listPage struct {
	Items  []map[string]any `json:"items"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// mountResource registers list, create, edit and delete pages for res.
func mountResource(r chi.Router, api *apiClient, res resource) {
	base := "/" + res.Name
	r.Get(base, resourceList(api, res))
	r.Get(base+"/new", resourceNewForm(res))
	r.Post(base, resourceCreate(api, res))
	if !res.NoEdit {
		r.Get(base+"/{id}/edit", resourceEditForm(api, res))
		r.Post(base+"/{id}/edit", resourceUpdate(api, res))
	}
	r.Get(base+"/{id}/delete", resourceDeleteConfirm(res))
	r.Post(base+"/{id}/delete", resourceDelete(api, res))
}

func resourceList(api *apiClient, res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageNum := 1
		if p := r.URL.Query().Get("page"); p != "" {
			if n, err := strconv.Atoi(p); err == nil && n > 0 {
				pageNum = n
			}
		}
		q := url.Values{}
		filters := map[string]string{}
		for _, f := range res.Filters {
			if v := r.URL.Query().Get(f); v != "" {
				q.Set(f, v)
				filters[f] = v
			}
		}
		filterQuery := q.Encode()
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("offset", strconv.Itoa((pageNum-1)*pageSize))

		data := map[string]any{"Resource": res, "Page": pageNum, "Filters": filters, "FilterQuery": filterQuery}
		var out listPage
		if err := api.getJSON("/"+res.Name+"?"+q.Encode(), token(r), &out); err != nil {
			if handleAPIFailure(w, r, err) {
				return
			}
			data["Error"] = err.Error()
			page(w, r, "list.html", data)
			return
		}

		data["Items"] = out.Items
		if pageNum > 1 {
			data["PrevPage"] = pageNum - 1
		}
		if len(out.Items) == pageSize {
			data["NextPage"] = pageNum + 1
		}
		page(w, r, "list.html", data)
	}
}

func resourceNewForm(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values := map[string]string{}
		for _, f := range res.Fields {
			if f.Kind == kindCheckbox {
				values[f.Name] = "on"
			}
		}
		page(w, r, "form.html", map[string]any{
			"Resource": res,
			"Fields":   res.formFields(true),
			"Values":   values,
			"Action":   "/" + res.Name,
			"Heading":  "New " + res.Singular,
		})
	}
}

// submitForm converts the form, sends it, and re-renders the form with field
// errors on failure. It reports whether the API accepted the request.
func submitForm(w http.ResponseWriter, r *http.Request, api *apiClient, res resource, create bool, method, apiPath, action, heading string) bool {
	fields := res.formFields(create)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return false
	}
	rerender := func(msg string, fieldErrs map[string]string) {
		page(w, r, "form.html", map[string]any{
			"Resource": res,
			"Fields":   fields,
			"Values":   submittedValues(fields, r.PostForm),
			"Errors":   fieldErrs,
			"Error":    msg,
			"Action":   action,
			"Heading":  heading,
		})
	}

	body, fieldErrs := formToJSON(fields, r.PostForm)
	if len(fieldErrs) > 0 {
		rerender("Please correct the highlighted fields.", fieldErrs)
		return false
	}
	data, status, err := api.do(method, apiPath, token(r), body)
	if err != nil {
		rerender("Cannot reach API: "+err.Error(), nil)
		return false
	}
	if status == http.StatusUnauthorized {
		clearAuthAndRedirectToLogin(w, r)
		return false
	}
	if status >= 300 {
		ae := newAPIError(status, data)
		rerender(ae.Message, ae.Fields)
		return false
	}
	return true
}

func resourceCreate(api *apiClient, res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if submitForm(w, r, api, res, true, http.MethodPost, "/"+res.Name, "/"+res.Name, "New "+res.Singular) {
			redirectWithFlash(w, r, "/"+res.Name, "success", humanize(res.Singular)+" created.")
		}
	}
}

func resourceEditForm(api *apiClient, res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var rec map[string]any
		if err := api.getJSON("/"+res.Name+"/"+url.PathEscape(id), token(r), &rec); err != nil {
			if handleAPIFailure(w, r, err) {
				return
			}
			redirectWithFlash(w, r, "/"+res.Name, "error", err.Error())
			return
		}
		fields := res.formFields(false)
		page(w, r, "form.html", map[string]any{
			"Resource": res,
			"Fields":   fields,
			"Values":   formValues(fields, rec),
			"Action":   fmt.Sprintf("/%s/%s/edit", res.Name, url.PathEscape(id)),
			"Heading":  "Edit " + res.Singular + " " + id,
		})
	}
}

func resourceUpdate(api *apiClient, res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := url.PathEscape(chi.URLParam(r, "id"))
		action := fmt.Sprintf("/%s/%s/edit", res.Name, id)
		if submitForm(w, r, api, res, false, http.MethodPut, "/"+res.Name+"/"+id, action, "Edit "+res.Singular) {
			redirectWithFlash(w, r, "/"+res.Name, "success", humanize(res.Singular)+" updated.")
		}
	}
}

func resourceDeleteConfirm(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page(w, r, "confirm_delete.html", map[string]any{
			"Resource": res,
			"ID":       chi.URLParam(r, "id"),
		})
	}
}

func resourceDelete(api *apiClient, res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		data, status, err := api.delete("/"+res.Name+"/"+url.PathEscape(id), token(r))
		switch {
		case err != nil:
			redirectWithFlash(w, r, "/"+res.Name, "error", "Cannot reach API: "+err.Error())
		case status == http.StatusUnauthorized:
			clearAuthAndRedirectToLogin(w, r)
		case status >= 300:
			redirectWithFlash(w, r, "/"+res.Name, "error", "Delete failed: "+newAPIError(status, data).Message)
		default:
			redirectWithFlash(w, r, "/"+res.Name, "success", humanize(res.Singular)+" "+id+" deleted.")
		}
	}
}
