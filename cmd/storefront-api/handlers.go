package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/storefront/internal/address"
	"github.com/MikeMC777/storefront/internal/cart"
	"github.com/MikeMC777/storefront/internal/checkout"
	"github.com/MikeMC777/storefront/internal/clientstore"
	"github.com/MikeMC777/storefront/internal/favorites"
	"github.com/MikeMC777/storefront/internal/httpx"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/payment"
	"github.com/MikeMC777/storefront/internal/preferences"
	"github.com/MikeMC777/storefront/internal/product"
	"github.com/MikeMC777/storefront/internal/settings"
	"github.com/MikeMC777/storefront/internal/shipping"
)

func parsePage(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}

func session(c *gin.Context, sessions clientstore.Sessions) clientstore.KV {
	return sessions.Session(httpx.SessionID(c))
}

// ---------- products ----------

// listProductsHandler godoc
// @Summary      List products
// @Description  Filters the cached catalog by search term and category, then sorts it.
// @Tags         products
// @Produce      json
// @Param        q         query  string  false  "search in name or description"
// @Param        category  query  string  false  "extra-virgin, infused, organic or gift-sets"
// @Param        sort      query  string  false  "featured, price-asc, price-desc, rating or name"
// @Success      200  {object}  product.ListResponse
// @Failure      400  {object}  httpx.HTTPError
// @Failure      503  {object}  httpx.HTTPError
// @Router       /products [get]
func listProductsHandler(catalog *product.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := product.Query{
			Search:   c.Query("q"),
			Category: product.Category(c.Query("category")),
			Sort:     product.ParseSort(c.Query("sort")),
		}
		if q.Category != "" && !q.Category.Valid() {
			httpx.Abort(c, http.StatusBadRequest, "unknown category")
			return
		}
		st := catalog.State()
		if st.Err != nil && len(st.Products) == 0 {
			httpx.Abort(c, http.StatusServiceUnavailable, "catalog unavailable")
			return
		}
		c.JSON(http.StatusOK, product.ListResponse{
			Q:        q.Search,
			Category: q.Category,
			Sort:     q.Sort,
			Total:    len(st.Products),
			Items:    product.Filter(st.Products, q),
		})
	}
}

// getProductHandler godoc
// @Summary  Get a product
// @Tags     products
// @Produce  json
// @Param    id   path  string  true  "product id"
// @Success  200  {object}  product.Product
// @Failure  404  {object}  httpx.HTTPError
// @Router   /products/{id} [get]
func getProductHandler(catalog *product.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := catalog.Get(c.Param("id"))
		if !ok {
			httpx.Abort(c, http.StatusNotFound, "product not found")
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// ---------- cart ----------

type cartView struct {
	Items      []cart.Item     `json:"items"`
	IsOpen     bool            `json:"isOpen"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

func newCartView(s cart.State) cartView {
	items := s.Items
	if items == nil {
		items = []cart.Item{}
	}
	return cartView{
		Items:      items,
		IsOpen:     s.Open,
		TotalItems: cart.TotalItems(s.Items),
		TotalPrice: cart.TotalPrice(s.Items),
	}
}

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type setOpenRequest struct {
	Open bool `json:"open"`
}

func openCart(c *gin.Context, sessions clientstore.Sessions) (*cart.Container, bool) {
	ct, err := cart.Open(c.Request.Context(), session(c, sessions))
	if err != nil {
		log.Printf("[cart] sid=%s: %v", httpx.SessionID(c), err)
		httpx.Abort(c, http.StatusServiceUnavailable, "cart unavailable")
		return nil, false
	}
	return ct, true
}

// cartActionHandler runs the action built from the request against the
// session cart and answers with the resulting cart.
func cartActionHandler(sessions clientstore.Sessions, build func(c *gin.Context) (cart.Action, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := build(c)
		if !ok {
			return
		}
		ct, ok := openCart(c, sessions)
		if !ok {
			return
		}
		st, err := ct.Dispatch(c.Request.Context(), a)
		if err != nil {
			log.Printf("[cart] sid=%s: %v", httpx.SessionID(c), err)
			httpx.Abort(c, http.StatusServiceUnavailable, "cart not saved")
			return
		}
		c.JSON(http.StatusOK, newCartView(st))
	}
}

// getCartHandler godoc
// @Summary  Current session cart
// @Tags     cart
// @Produce  json
// @Success  200  {object}  cartView
// @Router   /cart [get]
func getCartHandler(sessions clientstore.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		ct, ok := openCart(c, sessions)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, newCartView(ct.State()))
	}
}

// addCartItemHandler godoc
// @Summary      Add one unit of a product
// @Description  Increments the quantity when the product is already in the cart.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        body  body      addItemRequest  true  "product"
// @Success      200   {object}  cartView
// @Failure      404   {object}  httpx.HTTPError
// @Failure      409   {object}  httpx.HTTPError
// @Router       /cart/items [post]
func addCartItemHandler(sessions clientstore.Sessions, catalog *product.Catalog) gin.HandlerFunc {
	return cartActionHandler(sessions, func(c *gin.Context) (cart.Action, bool) {
		var req addItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Abort(c, http.StatusBadRequest, "invalid json: "+err.Error())
			return cart.Action{}, false
		}
		p, ok := catalog.Get(req.ProductID)
		if !ok {
			httpx.Abort(c, http.StatusNotFound, "product not found")
			return cart.Action{}, false
		}
		if !p.InStock {
			httpx.Abort(c, http.StatusConflict, "product out of stock")
			return cart.Action{}, false
		}
		return cart.Add(p), true
	})
}

// setCartQuantityHandler godoc
// @Summary      Set an item's quantity
// @Description  A quantity of zero or less removes the item.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        product_id  path      string              true  "product id"
// @Param        body        body      setQuantityRequest  true  "quantity"
// @Success      200         {object}  cartView
// @Router       /cart/items/{product_id} [put]
func setCartQuantityHandler(sessions clientstore.Sessions) gin.HandlerFunc {
	return cartActionHandler(sessions, func(c *gin.Context) (cart.Action, bool) {
		var req setQuantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Abort(c, http.StatusBadRequest, "invalid json: quantity is required")
			return cart.Action{}, false
		}
		return cart.ChangeQuantity(c.Param("product_id"), *req.Quantity), true
	})
}

// removeCartItemHandler godoc
// @Summary  Remove an item
// @Tags     cart
// @Produce  json
// @Param    product_id  path  string  true  "product id"
// @Success  200  {object}  cartView
// @Router   /cart/items/{product_id} [delete]
func removeCartItemHandler(sessions clientstore.Sessions) gin.HandlerFunc {
	return cartActionHandler(sessions, func(c *gin.Context) (cart.Action, bool) {
		return cart.Remove(c.Param("product_id")), true
	})
}

// clearCartHandler godoc
// @Summary  Empty the cart
// @Tags     cart
// @Produce  json
// @Success  200  {object}  cartView
// @Router   /cart [delete]
func clearCartHandler(sessions clientstore.Sessions) gin.HandlerFunc {
	return cartActionHandler(sessions, func(*gin.Context) (cart.Action, bool) {
		return cart.ClearItems(), true
	})
}

// toggleCartHandler godoc
// @Summary  Toggle the cart panel
// @Tags     cart
// @Produce  json
// @Success  200  {object}  cartView
// @Router   /cart/toggle [post]
func toggleCartHandler(sessions clientstore.Sessions) gin.HandlerFunc {
	return cartActionHandler(sessions, func(*gin.Context) (cart.Action, bool) {
		return cart.ToggleOpen(), true
	})
}

// setCartOpenHandler godoc
// @Summary  Show or hide the cart panel
// @Tags     cart
// @Accept   json
// @Produce  json
// @Param    body  body  setOpenRequest  true  "visibility"
// @Success  200  {object}  cartView
// @Router   /cart/open [put]
func setCartOpenHandler(sessions clientstore.Sessions) gin.HandlerFunc {
	return cartActionHandler(sessions, func(c *gin.Context) (cart.Action, bool) {
		var req setOpenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Abort(c, http.StatusBadRequest, "invalid json: "+err.Error())
			return cart.Action{}, false
		}
		return cart.Visible(req.Open), true
	})
}

// ---------- favorites ----------

type favoritesView struct {
	Items []string `json:"items"`
}

type toggleFavoriteResponse struct {
	ProductID string `json:"productId"`
	Favorite  bool   `json:"favorite"`
}

func openFavorites(c *gin.Context, sessions clientstore.Sessions, remote favorites.Remote) (*favorites.Store, bool) {
	fs, err := favorites.Open(c.Request.Context(), session(c, sessions), remote, httpx.Identity(c).UserID)
	if err != nil {
		log.Printf("[favorites] sid=%s: %v", httpx.SessionID(c), err)
		httpx.Abort(c, http.StatusServiceUnavailable, "favorites unavailable")
		return nil, false
	}
	return fs, true
}

// listFavoritesHandler godoc
// @Summary      Favorite product ids
// @Description  Signed-in users get their stored favorites, anonymous shoppers the session set.
// @Tags         favorites
// @Produce      json
// @Success      200  {object}  favoritesView
// @Router       /favorites [get]
func listFavoritesHandler(sessions clientstore.Sessions, remote favorites.Remote) gin.HandlerFunc {
	return func(c *gin.Context) {
		fs, ok := openFavorites(c, sessions, remote)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, favoritesView{Items: fs.List()})
	}
}

// toggleFavoriteHandler godoc
// @Summary  Toggle a favorite
// @Tags     favorites
// @Produce  json
// @Param    product_id  path  string  true  "product id"
// @Success  200  {object}  toggleFavoriteResponse
// @Failure  503  {object}  httpx.HTTPError
// @Router   /favorites/{product_id}/toggle [post]
func toggleFavoriteHandler(sessions clientstore.Sessions, remote favorites.Remote) gin.HandlerFunc {
	return func(c *gin.Context) {
		fs, ok := openFavorites(c, sessions, remote)
		if !ok {
			return
		}
		id := c.Param("product_id")
		fav, err := fs.Toggle(c.Request.Context(), id)
		if err != nil {
			log.Printf("[favorites] toggle %s: %v", id, err)
			httpx.Abort(c, http.StatusServiceUnavailable, "favorite not saved")
			return
		}
		c.JSON(http.StatusOK, toggleFavoriteResponse{ProductID: id, Favorite: fav})
	}
}

// ---------- preferences ----------

type setLanguageRequest struct {
	Language string `json:"language" binding:"required" example:"es"`
}

// getPreferencesHandler godoc
// @Summary  Language and showcase flags
// @Tags     preferences
// @Produce  json
// @Success  200  {object}  preferences.Preferences
// @Router   /preferences [get]
func getPreferencesHandler(sessions clientstore.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := preferences.NewStore(session(c, sessions)).Get(c.Request.Context())
		if err != nil {
			log.Printf("[preferences] sid=%s: %v", httpx.SessionID(c), err)
		}
		c.JSON(http.StatusOK, p)
	}
}

// setLanguageHandler godoc
// @Summary  Choose the display language
// @Tags     preferences
// @Accept   json
// @Produce  json
// @Param    body  body  setLanguageRequest  true  "language code"
// @Success  200  {object}  preferences.Preferences
// @Failure  400  {object}  httpx.HTTPError
// @Router   /preferences/language [put]
func setLanguageHandler(sessions clientstore.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req setLanguageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Abort(c, http.StatusBadRequest, "invalid json: "+err.Error())
			return
		}
		store := preferences.NewStore(session(c, sessions))
		if _, err := store.SetLanguage(c.Request.Context(), req.Language); err != nil {
			if errors.Is(err, preferences.ErrUnsupportedLanguage) {
				httpx.Abort(c, http.StatusBadRequest, err.Error())
				return
			}
			httpx.Abort(c, http.StatusServiceUnavailable, "preference not saved")
			return
		}
		p, _ := store.Get(c.Request.Context())
		c.JSON(http.StatusOK, p)
	}
}

// dismissShowcaseHandler godoc
// @Summary  Hide the product showcase
// @Tags     preferences
// @Success  204
// @Router   /preferences/showcase/dismiss [post]
func dismissShowcaseHandler(sessions clientstore.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := preferences.NewStore(session(c, sessions)).DismissShowcase(c.Request.Context()); err != nil {
			httpx.Abort(c, http.StatusServiceUnavailable, "preference not saved")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ---------- settings ----------

// getSettingsHandler godoc
// @Summary  Public store settings
// @Tags     settings
// @Produce  json
// @Success  200  {object}  settings.StoreSettings
// @Router   /settings [get]
func getSettingsHandler(provider *settings.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, provider.Current())
	}
}

// updateSettingsHandler godoc
// @Summary  Replace store settings
// @Tags     admin
// @Accept   json
// @Produce  json
// @Param    body  body  settings.StoreSettings  true  "settings"
// @Success  200  {object}  settings.StoreSettings
// @Failure  400  {object}  httpx.HTTPError
// @Router   /admin/settings [put]
func updateSettingsHandler(provider *settings.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in settings.StoreSettings
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Abort(c, http.StatusBadRequest, "invalid json: "+err.Error())
			return
		}
		fields := map[string]string{}
		if in.StoreName == "" {
			fields["store_name"] = "required"
		}
		if in.Currency == "" {
			fields["currency"] = "required"
		}
		if in.TaxRate.IsNegative() {
			fields["tax_rate"] = "must be non-negative"
		}
		if in.FreeShippingThreshold.IsNegative() {
			fields["free_shipping_threshold"] = "must be non-negative"
		}
		if len(fields) > 0 {
			httpx.AbortFields(c, http.StatusBadRequest, "invalid settings", fields)
			return
		}
		out, err := provider.Update(c.Request.Context(), in)
		if err != nil {
			log.Printf("[settings] update: %v", err)
			httpx.Abort(c, http.StatusInternalServerError, "settings not saved")
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// ---------- checkout ----------

type checkoutView struct {
	State          checkout.State    `json:"state"`
	SavedAddresses []address.Saved   `json:"savedAddresses,omitempty"`
	Options        []shipping.Option `json:"shippingOptions,omitempty"`
	Quote          *shipping.Quote   `json:"quote,omitempty"`
}

type selectAddressRequest struct {
	AddressID string `json:"address_id" binding:"required"`
}

type shippingRequest struct {
	Address     address.Shipping `json:"address"`
	SaveAddress bool             `json:"saveAddress"`
}

type deliveryRequest struct {
	Option string `json:"option" example:"express"`
}

type paymentIntentResponse struct {
	Intent payment.Intent `json:"intent"`
	Quote  shipping.Quote `json:"quote"`
}

type completePaymentRequest struct {
	IntentID string `json:"intent_id" binding:"required"`
}

// checkoutFlow resumes the session's checkout, lets run act on it, and saves
// the state back afterwards. run writes the response; a returned error is
// mapped to a status by checkoutError.
func checkoutFlow(sessions clientstore.Sessions, svc *checkout.Service,
	run func(c *gin.Context, f *checkout.Flow) (*checkoutView, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		kv := session(c, sessions)
		ct, ok := openCart(c, sessions)
		if !ok {
			return
		}
		var st checkout.State
		if _, err := clientstore.LoadJSON(ctx, kv, clientstore.KeyCheckout, &st); err != nil {
			log.Printf("[checkout] load sid=%s: %v", httpx.SessionID(c), err)
			httpx.Abort(c, http.StatusServiceUnavailable, "checkout unavailable")
			return
		}

		f := svc.Resume(st, ct, httpx.Identity(c))
		view, err := run(c, f)
		if sErr := clientstore.SaveJSON(ctx, kv, clientstore.KeyCheckout, f.State()); sErr != nil {
			log.Printf("[checkout] save sid=%s: %v", httpx.SessionID(c), sErr)
		}
		if err != nil {
			checkoutError(c, err)
			return
		}
		if c.Writer.Written() {
			return
		}
		if view == nil {
			view = &checkoutView{}
		}
		view.State = f.State()
		if view.State.Step != checkout.StepConfirmation {
			view.Options = f.Options()
			if q, _, err := f.Quote(); err == nil {
				view.Quote = &q
			}
		}
		c.JSON(http.StatusOK, view)
	}
}

func checkoutError(c *gin.Context, err error) {
	var (
		verr *address.ValidationError
		serr *checkout.StepError
		perr *checkout.PaymentError
	)
	switch {
	case errors.As(err, &verr):
		httpx.AbortFields(c, http.StatusUnprocessableEntity, "invalid address", verr.Fields)
	case errors.As(err, &perr):
		httpx.Abort(c, http.StatusPaymentRequired, perr.Message)
	case errors.As(err, &serr):
		httpx.Abort(c, http.StatusConflict, serr.Error())
	case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, checkout.ErrDuplicatePayment),
		errors.Is(err, checkout.ErrAmountChanged):
		httpx.Abort(c, http.StatusConflict, err.Error())
	case errors.Is(err, checkout.ErrUnknownIntent), errors.Is(err, shipping.ErrUnknownOption):
		httpx.Abort(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, address.ErrNotFound):
		httpx.Abort(c, http.StatusNotFound, err.Error())
	default:
		log.Printf("[checkout] %v", err)
		httpx.Abort(c, http.StatusBadGateway, "checkout failed")
	}
}

// enterCheckoutHandler godoc
// @Summary      Start or resume checkout
// @Description  Refuses an empty cart. A finished checkout starts over once the cart is refilled.
// @Tags         checkout
// @Produce      json
// @Success      200  {object}  checkoutView
// @Failure      409  {object}  httpx.HTTPError
// @Router       /checkout [post]
func enterCheckoutHandler(sessions clientstore.Sessions, svc *checkout.Service) gin.HandlerFunc {
	return checkoutFlow(sessions, svc, func(c *gin.Context, f *checkout.Flow) (*checkoutView, error) {
		saved, err := f.Enter(c.Request.Context())
		if err != nil {
			return nil, err
		}
		return &checkoutView{SavedAddresses: saved}, nil
	})
}

// getCheckoutHandler godoc
// @Summary      Current checkout state with options and quote
// @Description  An empty cart answers 409 unless the checkout is already confirmed.
// @Tags         checkout
// @Produce      json
// @Success      200  {object}  checkoutView
// @Failure      409  {object}  httpx.HTTPError
// @Router       /checkout [get]
func getCheckoutHandler(sessions clientstore.Sessions, svc *checkout.Service) gin.HandlerFunc {
	return checkoutFlow(sessions, svc, func(_ *gin.Context, f *checkout.Flow) (*checkoutView, error) {
		return nil, f.Check()
	})
}

// selectAddressHandler godoc
// @Summary  Fill the shipping form from a saved address
// @Tags     checkout
// @Accept   json
// @Produce  json
// @Param    body  body  selectAddressRequest  true  "saved address"
// @Success  200  {object}  checkoutView
// @Failure  404  {object}  httpx.HTTPError
// @Router   /checkout/address [post]
func selectAddressHandler(sessions clientstore.Sessions, svc *checkout.Service) gin.HandlerFunc {
	return checkoutFlow(sessions, svc, func(c *gin.Context, f *checkout.Flow) (*checkoutView, error) {
		var req selectAddressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Abort(c, http.StatusBadRequest, "invalid json: "+err.Error())
			return nil, nil
		}
		return nil, f.SelectAddress(c.Request.Context(), req.AddressID)
	})
}

// submitShippingHandler godoc
// @Summary  Submit the shipping address
// @Tags     checkout
// @Accept   json
// @Produce  json
// @Param    body  body  shippingRequest  true  "address"
// @Success  200  {object}  checkoutView
// @Failure  422  {object}  httpx.HTTPError
// @Router   /checkout/shipping [put]
func submitShippingHandler(sessions clientstore.Sessions, svc *checkout.Service) gin.HandlerFunc {
	return checkoutFlow(sessions, svc, func(c *gin.Context, f *checkout.Flow) (*checkoutView, error) {
		var req shippingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Abort(c, http.StatusBadRequest, "invalid json: "+err.Error())
			return nil, nil
		}
		return nil, f.SubmitShipping(req.Address, req.SaveAddress)
	})
}

// submitDeliveryHandler godoc
// @Summary  Choose the delivery tier
// @Tags     checkout
// @Accept   json
// @Produce  json
// @Param    body  body  deliveryRequest  true  "standard, express or overnight"
// @Success  200  {object}  checkoutView
// @Failure  400  {object}  httpx.HTTPError
// @Router   /checkout/delivery [put]
func submitDeliveryHandler(sessions clientstore.Sessions, svc *checkout.Service) gin.HandlerFunc {
	return checkoutFlow(sessions, svc, func(c *gin.Context, f *checkout.Flow) (*checkoutView, error) {
		var req deliveryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Abort(c, http.StatusBadRequest, "invalid json: "+err.Error())
			return nil, nil
		}
		return nil, f.SubmitDelivery(req.Option)
	})
}

// checkoutBackHandler godoc
// @Summary  Go back one step
// @Tags     checkout
// @Produce  json
// @Success  200  {object}  checkoutView
// @Failure  409  {object}  httpx.HTTPError
// @Router   /checkout/back [post]
func checkoutBackHandler(sessions clientstore.Sessions, svc *checkout.Service) gin.HandlerFunc {
	return checkoutFlow(sessions, svc, func(_ *gin.Context, f *checkout.Flow) (*checkoutView, error) {
		return nil, f.Back()
	})
}

// createPaymentIntentHandler godoc
// @Summary  Authorize the order total with the processor
// @Tags     checkout
// @Produce  json
// @Success  200  {object}  paymentIntentResponse
// @Failure  409  {object}  httpx.HTTPError
// @Router   /checkout/payment-intent [post]
func createPaymentIntentHandler(sessions clientstore.Sessions, svc *checkout.Service) gin.HandlerFunc {
	return checkoutFlow(sessions, svc, func(c *gin.Context, f *checkout.Flow) (*checkoutView, error) {
		in, q, err := f.CreatePaymentIntent(c.Request.Context())
		if err != nil {
			return nil, err
		}
		c.JSON(http.StatusOK, paymentIntentResponse{Intent: in, Quote: q})
		return nil, nil
	})
}

// completePaymentHandler godoc
// @Summary      Settle the payment and place the order
// @Description  A declined card answers 402 with the processor's message and keeps the cart.
// @Description  A cart total that no longer matches the intent answers 409; create a new intent.
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        body  body      completePaymentRequest  true  "intent"
// @Success      200   {object}  checkoutView
// @Failure      402   {object}  httpx.HTTPError
// @Failure      409   {object}  httpx.HTTPError
// @Router       /checkout/payment [post]
func completePaymentHandler(sessions clientstore.Sessions, svc *checkout.Service) gin.HandlerFunc {
	return checkoutFlow(sessions, svc, func(c *gin.Context, f *checkout.Flow) (*checkoutView, error) {
		var req completePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Abort(c, http.StatusBadRequest, "invalid json: "+err.Error())
			return nil, nil
		}
		return nil, f.CompletePayment(c.Request.Context(), req.IntentID)
	})
}

// ---------- orders ----------

func orderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrNotFound):
		httpx.Abort(c, http.StatusNotFound, "order not found")
	case errors.Is(err, order.ErrInvalidStatus):
		httpx.Abort(c, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[order] %v", err)
		httpx.Abort(c, http.StatusInternalServerError, "db error")
	}
}

func views(list []order.Order) []order.View {
	out := make([]order.View, len(list))
	for i, o := range list {
		out[i] = order.NewView(o)
	}
	return out
}

// listMyOrdersHandler godoc
// @Summary  The caller's orders, newest first
// @Tags     orders
// @Produce  json
// @Security BearerAuth
// @Param    limit   query  int  false  "page size"
// @Param    offset  query  int  false  "offset"
// @Success  200  {array}  order.View
// @Router   /me/orders [get]
func listMyOrdersHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := parsePage(c)
		list, err := svc.ListForUser(c.Request.Context(), httpx.Identity(c).UserID, limit, offset)
		if err != nil {
			orderError(c, err)
			return
		}
		c.JSON(http.StatusOK, views(list))
	}
}

// getMyOrderHandler godoc
// @Summary  One of the caller's orders
// @Tags     orders
// @Produce  json
// @Security BearerAuth
// @Param    id   path  string  true  "order id"
// @Success  200  {object}  order.View
// @Failure  404  {object}  httpx.HTTPError
// @Router   /me/orders/{id} [get]
func getMyOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.GetForUser(c.Request.Context(), httpx.Identity(c).UserID, c.Param("id"))
		if err != nil {
			orderError(c, err)
			return
		}
		c.JSON(http.StatusOK, order.NewView(*o))
	}
}

// listOrdersHandler godoc
// @Summary  All orders for the back office
// @Tags     admin
// @Produce  json
// @Security BearerAuth
// @Param    q       query  string  false  "order id, customer name or email"
// @Param    status  query  string  false  "status filter"
// @Param    limit   query  int     false  "page size"
// @Param    offset  query  int     false  "offset"
// @Success  200  {array}  order.View
// @Failure  400  {object}  httpx.HTTPError
// @Router   /admin/orders [get]
func listOrdersHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := parsePage(c)
		list, err := svc.List(c.Request.Context(), order.Filter{
			Q:      c.Query("q"),
			Status: order.Status(c.Query("status")),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			orderError(c, err)
			return
		}
		c.JSON(http.StatusOK, views(list))
	}
}

// orderStatsHandler godoc
// @Summary  Order counts per status and revenue
// @Tags     admin
// @Produce  json
// @Security BearerAuth
// @Success  200  {object}  order.Stats
// @Router   /admin/orders/stats [get]
func orderStatsHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := svc.Stats(c.Request.Context())
		if err != nil {
			orderError(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

// updateOrderStatusHandler godoc
// @Summary      Change an order's status
// @Description  Any status may follow any other.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                     true  "order id"
// @Param        body  body      order.UpdateStatusRequest  true  "new status"
// @Success      200   {object}  order.View
// @Failure      400   {object}  httpx.HTTPError
// @Failure      404   {object}  httpx.HTTPError
// @Router       /admin/orders/{id}/status [put]
func updateOrderStatusHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Abort(c, http.StatusBadRequest, "invalid json: "+err.Error())
			return
		}
		o, err := svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
		if err != nil {
			orderError(c, err)
			return
		}
		c.JSON(http.StatusOK, order.NewView(*o))
	}
}

// ---------- addresses ----------

func addressError(c *gin.Context, err error) {
	var verr *address.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.AbortFields(c, http.StatusUnprocessableEntity, "invalid address", verr.Fields)
	case errors.Is(err, address.ErrNotFound):
		httpx.Abort(c, http.StatusNotFound, "address not found")
	default:
		log.Printf("[address] %v", err)
		httpx.Abort(c, http.StatusInternalServerError, "db error")
	}
}

// listAddressesHandler godoc
// @Summary  Saved addresses, default first
// @Tags     addresses
// @Produce  json
// @Security BearerAuth
// @Success  200  {array}  address.Saved
// @Router   /me/addresses [get]
func listAddressesHandler(svc *address.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		all, err := svc.List(c.Request.Context(), httpx.Identity(c).UserID)
		if err != nil {
			addressError(c, err)
			return
		}
		if all == nil {
			all = []address.Saved{}
		}
		c.JSON(http.StatusOK, all)
	}
}

// saveAddressHandler godoc
// @Summary  Create or replace a saved address
// @Tags     addresses
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id    path  string         false  "address id (update only)"
// @Param    body  body  address.Saved  true   "address"
// @Success  200  {object}  address.Saved
// @Success  201  {object}  address.Saved
// @Failure  422  {object}  httpx.HTTPError
// @Router   /me/addresses [post]
// @Router   /me/addresses/{id} [put]
func saveAddressHandler(svc *address.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var a address.Saved
		if err := c.ShouldBindJSON(&a); err != nil {
			httpx.Abort(c, http.StatusBadRequest, "invalid json: "+err.Error())
			return
		}
		a.ID = c.Param("id")
		a.UserID = httpx.Identity(c).UserID
		created := a.ID == ""
		if err := svc.Save(c.Request.Context(), &a); err != nil {
			addressError(c, err)
			return
		}
		if created {
			c.JSON(http.StatusCreated, a)
			return
		}
		c.JSON(http.StatusOK, a)
	}
}

// deleteAddressHandler godoc
// @Summary  Delete a saved address
// @Tags     addresses
// @Security BearerAuth
// @Param    id  path  string  true  "address id"
// @Success  204
// @Failure  404  {object}  httpx.HTTPError
// @Router   /me/addresses/{id} [delete]
func deleteAddressHandler(svc *address.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), httpx.Identity(c).UserID, c.Param("id")); err != nil {
			addressError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// setDefaultAddressHandler godoc
// @Summary  Mark an address as the default
// @Tags     addresses
// @Security BearerAuth
// @Param    id  path  string  true  "address id"
// @Success  204
// @Failure  404  {object}  httpx.HTTPError
// @Router   /me/addresses/{id}/default [post]
func setDefaultAddressHandler(svc *address.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.SetDefault(c.Request.Context(), httpx.Identity(c).UserID, c.Param("id")); err != nil {
			addressError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
