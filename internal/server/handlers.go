package server

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/muurk/labelgen/internal/api"
	"github.com/muurk/labelgen/internal/app"
	"github.com/muurk/labelgen/internal/barcode"
	"github.com/muurk/labelgen/internal/catalog"
	"github.com/muurk/labelgen/internal/labels"
	"github.com/muurk/labelgen/internal/logging"
	"github.com/muurk/labelgen/internal/version"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, api.HealthResponse{
		Status:   "ok",
		Workbook: filepath.Base(s.app.Store.Path()),
		Products: len(s.app.Store.Products()),
		Clients:  s.hub.Clients(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, api.VersionResponse{
		Version:   version.Version,
		Commit:    version.Commit,
		BuildDate: version.BuildDate,
	})
}

// catalogChanged tells subscribers to refresh their product lists.
func (s *Server) catalogChanged(msg string) {
	s.hub.Broadcast(api.Event{Type: api.EventCatalog, Message: msg})
}

// ---- categories ----

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	counts := s.app.Store.CategoryCounts()
	cats := s.app.Store.Categories()
	out := make([]api.Category, len(cats))
	for i, c := range cats {
		out[i] = api.Category{ID: c.ID, Name: c.Name, Products: counts[c.ID]}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req api.CreateCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := s.app.Store.AddCategory(req.Name, req.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.catalogChanged("Category added: " + c.Name)
	respondJSON(w, http.StatusCreated, api.Category{ID: c.ID, Name: c.Name})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Name == nil && req.ID == nil {
		respondError(w, r, &api.ValidationError{Fields: []string{"name or id is required"}})
		return
	}

	store := s.app.Store
	c, err := app.ResolveCategory(store, urlParam(r, "category"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	name := c.Name
	if req.Name != nil && strings.TrimSpace(*req.Name) != name {
		if err := store.RenameCategory(name, *req.Name); err != nil {
			respondError(w, r, err)
			return
		}
		name = strings.TrimSpace(*req.Name)
	}
	if req.ID != nil && *req.ID != c.ID {
		if err := store.SetCategoryID(name, *req.ID); err != nil {
			respondError(w, r, err)
			return
		}
	}

	updated, err := store.CategoryByName(name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.catalogChanged("Category updated: " + updated.Name)
	respondJSON(w, http.StatusOK, api.Category{
		ID:       updated.ID,
		Name:     updated.Name,
		Products: store.CategoryCounts()[updated.ID],
	})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	c, err := app.ResolveCategory(s.app.Store, urlParam(r, "category"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.app.Store.DeleteCategory(c.Name); err != nil {
		respondError(w, r, err)
		return
	}
	s.catalogChanged("Category deleted: " + c.Name)
	w.WriteHeader(http.StatusNoContent)
}

// ---- products ----

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	var products []catalog.Product
	if ref := r.URL.Query().Get("category"); ref != "" {
		c, err := app.ResolveCategory(s.app.Store, ref)
		if err != nil {
			respondError(w, r, err)
			return
		}
		products = s.app.Store.ProductsInCategory(c.ID)
	} else {
		products = s.app.Store.Products()
	}

	out := make([]api.Product, len(products))
	for i, p := range products {
		out[i] = api.FromProduct(p)
	}
	respondJSON(w, http.StatusOK, out)
}

// productParams resolves the {category}/{id} path of a product.
func (s *Server) productParams(r *http.Request) (catalog.Category, int, error) {
	c, err := app.ResolveCategory(s.app.Store, urlParam(r, "category"))
	if err != nil {
		return catalog.Category{}, 0, err
	}
	id, err := strconv.Atoi(urlParam(r, "id"))
	if err != nil {
		return catalog.Category{}, 0, catalog.NewValidationError("id", fmt.Sprintf("invalid product ID %q", urlParam(r, "id")))
	}
	return c, id, nil
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	c, id, err := s.productParams(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	p, err := s.app.Store.Product(c.ID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, api.FromProduct(p))
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req api.CreateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := app.ResolveCategory(s.app.Store, req.Category)
	if err != nil {
		respondError(w, r, err)
		return
	}
	p, err := s.app.Store.AddProduct(catalog.Product{
		ID:         req.ID,
		Name:       req.Name,
		Price:      req.Price,
		CategoryID: c.ID,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.catalogChanged("Product added: " + p.Name)
	respondJSON(w, http.StatusCreated, api.FromProduct(p))
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	c, id, err := s.productParams(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req api.UpdateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	u := catalog.ProductUpdate{Name: req.Name, Price: req.Price, ID: req.ID}
	if req.Category != nil {
		target, err := app.ResolveCategory(s.app.Store, *req.Category)
		if err != nil {
			respondError(w, r, err)
			return
		}
		u.CategoryID = &target.ID
	}
	if u.IsEmpty() {
		respondError(w, r, &api.ValidationError{Fields: []string{"no fields to update"}})
		return
	}

	p, err := s.app.Store.UpdateProduct(c.ID, id, u)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.catalogChanged("Product updated: " + p.Name)
	respondJSON(w, http.StatusOK, api.FromProduct(p))
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	c, id, err := s.productParams(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.app.Store.DeleteProduct(c.ID, id); err != nil {
		respondError(w, r, err)
		return
	}
	s.catalogChanged(fmt.Sprintf("Product deleted: %s/%d", c.Name, id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	snap, err := s.app.Store.Undo()
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.catalogChanged("Undone: " + snap.Description)
	respondJSON(w, http.StatusOK, api.UndoResponse{Undone: snap.Description, Time: snap.Timestamp})
}

// ---- templates and barcodes ----

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	found, err := s.app.Workspace.ListTemplates()
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]api.Template, 0, len(found))
	for _, f := range found {
		t := api.Template{Name: f.Name, Default: f.Name == s.app.TemplateName()}
		tpl, err := labels.LoadTemplate(f.Path)
		if err != nil {
			t.Error = err.Error()
		} else {
			t.Rows, t.Cols, t.Capacity = tpl.Rows, tpl.Cols, tpl.Capacity
			t.CellWidthMM, t.CellHeightMM = tpl.CellWidthMM, tpl.CellHeightMM
		}
		out = append(out, t)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleBarcode(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSuffix(urlParam(r, "file"), ".png")
	if _, _, err := barcode.ParseNumber(code); err != nil {
		respondError(w, r, err)
		return
	}
	png, err := s.app.Renderer.Render(code)
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(png)
}

// ---- label jobs ----

func (s *Server) handleCreateLabels(w http.ResponseWriter, r *http.Request) {
	var req api.LabelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	sels := make([]app.Selection, len(req.Items))
	for i, it := range req.Items {
		sels[i] = app.Selection{Category: it.Category, ProductID: it.ID, Quantity: it.Quantity}
	}
	reqs, err := s.app.Requests(sels)
	if err != nil {
		respondError(w, r, err)
		return
	}

	// Remote callers may only name templates inside templates/.
	tplPath := ""
	if req.Template != "" {
		if tplPath, err = s.app.Workspace.TemplateFile(req.Template); err != nil {
			respondError(w, r, err)
			return
		}
	}

	// Every job writes into its own directory under output/jobs.
	var dir string
	gen, err := s.app.Generator(tplPath, func(o *labels.Options) {
		if req.Merge != nil {
			o.Merge = *req.Merge
		}
		o.FillPage = req.FillPage
		o.OutputName = req.OutputName
		dir = filepath.Join(o.OutputDir, "jobs", uuid.NewString())
		o.OutputDir = dir
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if _, err := gen.Plan(reqs); err != nil {
		respondError(w, r, catalog.NewValidationError("items", err.Error()))
		return
	}

	job, err := s.jobs.Submit(gen, reqs, dir)
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/jobs/"+job.ID)
	respondJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.jobs.List())
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.Get(urlParam(r, "id"))
	if !ok {
		respondError(w, r, catalog.NewNotFoundError("job not found"))
		return
	}
	respondJSON(w, http.StatusOK, job)
}

func (s *Server) handleJobFile(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")
	path, err := s.jobs.FilePath(urlParam(r, "id"), name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeFile(w, r, path)
}

// ---- logs ----

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := logging.Filter{Level: q.Get("level"), Module: q.Get("module"), Limit: 200}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, r, catalog.NewValidationError("limit", fmt.Sprintf("invalid limit %q", v)))
			return
		}
		f.Limit = n
	}

	entries := logging.GetJournal().Entries(f)
	out := make([]api.LogEntry, len(entries))
	for i, e := range entries {
		out[i] = api.LogEntry{Time: e.Time, Level: e.Level, Module: e.Module, Message: e.Message, Fields: e.Fields}
	}
	respondJSON(w, http.StatusOK, out)
}
