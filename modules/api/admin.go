package api

import (
	"io"
	"strconv"
	"strings"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/apperror"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/catalog"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/order"
	catalogmod "github.com/UtsavMehta1975/walsnut-sub000/modules/catalog"
	ordermod "github.com/UtsavMehta1975/walsnut-sub000/modules/order"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 200
)

// AdminListProducts lists every product narrowed by the admin filters.
func (h *Handlers) AdminListProducts(c *fiber.Ctx) error {
	q, err := parseProductQuery(c)
	if err != nil {
		return writeError(c, err)
	}

	products, err := h.ports.Catalog.ListAllProducts(h.ctx(c))
	if err != nil {
		return writeError(c, err)
	}
	matched := FilterProducts(products, q)
	return c.JSON(fiber.Map{
		"products": toProductDTOs(matched),
		"total":    len(matched),
	})
}

// AdminCreateProduct adds a product.
func (h *Handlers) AdminCreateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidBody())
	}

	p, err := h.ports.Catalog.CreateProduct(h.ctx(c), req.input())
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toProductDTO(p))
}

// AdminUpdateProduct replaces a product's fields.
func (h *Handlers) AdminUpdateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidBody())
	}

	p, err := h.ports.Catalog.UpdateProduct(h.ctx(c), c.Params("id"), req.input())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toProductDTO(p))
}

// AdminDeleteProduct removes a product.
func (h *Handlers) AdminDeleteProduct(c *fiber.Ctx) error {
	if err := h.ports.Catalog.DeleteProduct(h.ctx(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": true})
}

// AdminAddImage attaches an image by URL (JSON) or by file upload (multipart field "image").
func (h *Handlers) AdminAddImage(c *fiber.Ctx) error {
	req := catalogmod.AddImageRequest{ProductID: c.Params("id")}

	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		fh, err := c.FormFile("image")
		if err != nil {
			return writeError(c, apperror.Validation("invalid upload", map[string]string{"image": "file is required"}))
		}
		if fh.Size > catalogmod.MaxUploadBytes {
			return writeError(c, apperror.Validation("invalid upload", map[string]string{
				"image": "must be at most " + strconv.Itoa(catalogmod.MaxUploadBytes>>10) + "KB",
			}))
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, err)
		}
		defer f.Close()

		data, err := io.ReadAll(io.LimitReader(f, catalogmod.MaxUploadBytes))
		if err != nil {
			return writeError(c, err)
		}
		req.FileName = fh.Filename
		req.ContentType = fh.Header.Get(fiber.HeaderContentType)
		req.Data = data
		if raw := strings.TrimSpace(c.FormValue("isPrimary")); raw != "" {
			primary, err := strconv.ParseBool(raw)
			if err != nil {
				return writeError(c, apperror.Validation("invalid image upload", map[string]string{"isPrimary": "must be true or false"}))
			}
			req.IsPrimary = primary
		}
	} else {
		var body ImageRequest
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, invalidBody())
		}
		req.ImageURL = strings.TrimSpace(body.ImageURL)
		req.IsPrimary = body.IsPrimary
	}

	img, err := h.ports.Catalog.AddImage(h.ctx(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toImageDTO(*img))
}

// AdminListCategories lists categories.
func (h *Handlers) AdminListCategories(c *fiber.Ctx) error {
	return h.ListCategories(c)
}

// AdminCreateCategory finds or creates a category by name.
func (h *Handlers) AdminCreateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidBody())
	}

	cat, created, err := h.ports.Catalog.EnsureCategory(h.ctx(c), req.Name, catalog.CategoryType(strings.ToUpper(strings.TrimSpace(req.Type))))
	if err != nil {
		return writeError(c, err)
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"category": toCategoryDTO(*cat),
		"created":  created,
	})
}

// AdminListOrders lists every order narrowed by the admin filters.
func (h *Handlers) AdminListOrders(c *fiber.Ctx) error {
	q, err := parseOrderQuery(c)
	if err != nil {
		return writeError(c, err)
	}

	orders, err := h.ports.Orders.ListAllOrders(h.ctx(c))
	if err != nil {
		return writeError(c, err)
	}
	matched := FilterOrders(orders, q)
	return c.JSON(fiber.Map{
		"orders": toOrderDTOs(matched),
		"total":  len(matched),
	})
}

// AdminUpdateOrderStatus moves an order along its lifecycle.
func (h *Handlers) AdminUpdateOrderStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidBody())
	}

	o, err := h.ports.Orders.UpdateStatus(h.ctx(c), c.Params("id"), order.Status(strings.ToUpper(strings.TrimSpace(req.Status))))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toOrderDTO(o))
}

// AdminListCustomers returns per-customer order aggregates.
func (h *Handlers) AdminListCustomers(c *fiber.Ctx) error {
	customers, err := h.ports.Orders.ListCustomers(h.ctx(c))
	if err != nil {
		return writeError(c, err)
	}
	matched := FilterCustomers(customers, c.Query("q"))
	return c.JSON(fiber.Map{
		"customers": toCustomerDTOs(matched),
		"total":     len(matched),
	})
}

// AdminStats combines order and inventory counters.
func (h *Handlers) AdminStats(c *fiber.Ctx) error {
	var (
		orderStats   *ordermod.Stats
		catalogStats *catalogmod.Stats
	)

	g, ctx := errgroup.WithContext(h.ctx(c))
	g.Go(func() error {
		var err error
		orderStats, err = h.ports.Orders.Stats(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		catalogStats, err = h.ports.Catalog.Stats(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStatsDTO(orderStats, catalogStats))
}

// AdminActivity returns the newest activity feed entries.
func (h *Handlers) AdminActivity(c *fiber.Ctx) error {
	fields := map[string]string{}
	limit := queryInt(c, "limit", fields)
	switch {
	case len(fields) > 0:
	case limit == 0:
		limit = defaultActivityLimit
	case limit < 0 || limit > maxActivityLimit:
		fields["limit"] = "must be between 1 and " + strconv.Itoa(maxActivityLimit)
	}
	if len(fields) > 0 {
		return writeError(c, apperror.Validation("invalid query parameters", fields))
	}

	entries, err := h.ports.Activity.ListActivity(h.ctx(c), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"activity": toActivityDTOs(entries)})
}
