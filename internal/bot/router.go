// Package bot routes incoming WhatsApp messages: cheap heuristics and
// button payloads are handled directly, everything ambiguous goes through
// the model agent.
package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sanmarzano/orderbot/internal/agent"
	"github.com/sanmarzano/orderbot/internal/delivery"
	"github.com/sanmarzano/orderbot/internal/menu"
	"github.com/sanmarzano/orderbot/internal/models"
	"github.com/sanmarzano/orderbot/internal/session"
	"github.com/sanmarzano/orderbot/internal/whatsapp"
)

// Sender is the outbound surface the router needs; *whatsapp.Client
// implements it.
type Sender interface {
	SendText(ctx context.Context, to, text string) error
	SendButtons(ctx context.Context, to, body string, buttons []whatsapp.Button) error
	SendList(ctx context.Context, to, body, buttonLabel string, sections []whatsapp.ListSection) error
	MarkRead(ctx context.Context, messageID string)
	SendTyping(ctx context.Context, messageID string)
}

const (
	// dedupSize bounds the processed-message set; dedupTTL ages entries
	// out so the set cannot grow without bound across webhook retries.
	dedupSize = 4096
	dedupTTL  = 10 * time.Minute
)

type Router struct {
	sender    Sender
	store     *session.Store
	menu      *menu.Cache
	agent     *agent.Agent
	validator *Validator
	resolver  *delivery.Resolver

	dedup *expirable.LRU[string, struct{}]

	devPassphrase string
}

func NewRouter(sender Sender, store *session.Store, cache *menu.Cache, ag *agent.Agent, validator *Validator, resolver *delivery.Resolver, devPassphrase string) *Router {
	return &Router{
		sender:        sender,
		store:         store,
		menu:          cache,
		agent:         ag,
		validator:     validator,
		resolver:      resolver,
		dedup:         expirable.NewLRU[string, struct{}](dedupSize, nil, dedupTTL),
		devPassphrase: devPassphrase,
	}
}

// HandleIncoming processes one webhook message end to end. Redeliveries of
// an already-processed message id are dropped.
func (rt *Router) HandleIncoming(ctx context.Context, msg models.IncomingMessage) error {
	if msg.ID != "" {
		if _, seen := rt.dedup.Get(msg.ID); seen {
			log.Printf("bot: duplicate delivery of %s dropped", msg.ID)
			return nil
		}
		rt.dedup.Add(msg.ID, struct{}{})
	}

	if msg.ID != "" {
		rt.sender.MarkRead(ctx, msg.ID)
		rt.sender.SendTyping(ctx, msg.ID)
	}

	sess, err := rt.store.Get(ctx, msg.From)
	if err != nil {
		return fmt.Errorf("loading session for %s: %w", msg.From, err)
	}

	persist := true
	defer func() {
		if persist {
			if err := rt.store.Save(ctx, msg.From, sess); err != nil {
				log.Printf("bot: %v", err)
			}
		}
	}()

	switch {
	case msg.Location != nil:
		return rt.handleLocation(ctx, msg.From, sess, *msg.Location)
	case msg.HasPayload():
		return rt.handlePayload(ctx, msg.From, sess, msg.Payload)
	default:
		reset, err := rt.handleText(ctx, msg.From, sess, msg.Text)
		if reset {
			persist = false
		}
		return err
	}
}

// ---- location and coordinates ----

func (rt *Router) handleLocation(ctx context.Context, phone string, sess *models.Session, loc models.Location) error {
	quote := rt.store.Quote(loc)
	sess.Delivery = &quote

	if pending := sess.PendingAddressChange; pending != nil && pending.AddressText != "" && pending.Location == nil {
		// The text half arrived earlier; this location completes it.
		pending.Location = &quote.Location
		pending.DistanceKm = quote.DistanceKm
		pending.Cost = quote.Cost
		sess.OrderAddress = pending.AddressText
		sess.PendingAddressChange = nil
	} else {
		sess.PendingAddressChange = &models.PendingAddressChange{
			Location:    &quote.Location,
			DistanceKm:  quote.DistanceKm,
			Cost:        quote.Cost,
			RequestedAt: time.Now(),
		}
		if addr := sess.FinalAddress(); addr != "" {
			// A known address text pairs with the fresh coordinates.
			sess.PendingAddressChange.AddressText = addr
			sess.PendingAddressChange = nil
			sess.OrderAddress = addr
		}
	}

	if err := rt.sender.SendText(ctx, phone, FormatDeliveryQuote(quote)); err != nil {
		return err
	}

	if sess.PendingAddressChange != nil {
		sess.WaitingForAddress = true
		return rt.sender.SendText(ctx, phone, "¿Cuál es la dirección exacta? (calle, número y referencia) ✍️")
	}
	if len(sess.Cart) > 0 && sess.Name != "" {
		return rt.sender.SendText(ctx, phone, FormatCheckoutSummary(sess))
	}
	return nil
}

// handleCoordsText covers raw "lat,lng" pairs and Google Maps links typed
// into the chat.
func (rt *Router) handleCoordsText(ctx context.Context, phone string, sess *models.Session, text string) (bool, error) {
	if loc := delivery.ParseCoords(text); loc != nil {
		return true, rt.handleLocation(ctx, phone, sess, *loc)
	}

	rawURL := delivery.FirstURL(text)
	if rawURL == "" {
		return false, nil
	}
	if !delivery.IsMapsURL(rawURL) {
		return false, nil
	}

	loc, err := rt.resolver.CoordsFromMapsURL(ctx, rawURL)
	if err != nil || loc == nil {
		log.Printf("bot: maps link %q did not resolve: %v", rawURL, err)
		return true, rt.sender.SendText(ctx, phone,
			"No pude leer ese enlace 😅. Mejor comparte tu ubicación directamente: 📎 → Ubicación → Enviar tu ubicación actual.")
	}
	return true, rt.handleLocation(ctx, phone, sess, *loc)
}

// ---- interactive payloads ----

func (rt *Router) handlePayload(ctx context.Context, phone string, sess *models.Session, payload string) error {
	if p, ok := ParseCategoryPayload(payload); ok {
		return rt.sendCategoryPage(ctx, phone, p.Category, p.Page)
	}
	if p, ok := ParseSizePayload(payload); ok {
		return rt.addProduct(ctx, phone, sess, p.ItemID, p.Size)
	}
	if p, ok := ParseProductPayload(payload); ok {
		return rt.handleProductTap(ctx, phone, sess, p)
	}
	if cmd := ParseCommand(payload); cmd != CmdNone {
		return rt.handleCommand(ctx, phone, sess, cmd)
	}
	log.Printf("bot: unknown payload %q from %s", payload, phone)
	return rt.sendCategoryMenu(ctx, phone)
}

func (rt *Router) handleProductTap(ctx context.Context, phone string, sess *models.Session, p *ProductPayload) error {
	item, err := rt.menu.ItemByID(ctx, p.ItemID)
	if err != nil {
		return err
	}
	if item == nil {
		return rt.sender.SendText(ctx, phone, "Ese producto ya no está disponible 😔")
	}

	size := p.Size
	if size == "" && item.NeedsSize() {
		quantity := 1
		if sess.PendingSize != nil && sess.PendingSize.ItemID == item.ID {
			quantity = sess.PendingSize.Quantity
		}
		sess.PendingSize = &models.PendingSize{ItemID: item.ID, Quantity: quantity}
		return rt.sender.SendButtons(ctx, phone,
			fmt.Sprintf("¿De qué tamaño quieres tu %s?", item.Name), sizeButtons(item))
	}
	return rt.addProduct(ctx, phone, sess, item.ID, size)
}

func (rt *Router) addProduct(ctx context.Context, phone string, sess *models.Session, itemID, size string) error {
	item, err := rt.menu.ItemByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return rt.sender.SendText(ctx, phone, "Ese producto ya no está disponible 😔")
	}

	price, ok := item.PriceFor(size)
	if !ok {
		return rt.sender.SendButtons(ctx, phone,
			fmt.Sprintf("¿De qué tamaño quieres tu %s?", item.Name), sizeButtons(item))
	}

	quantity := 1
	if sess.PendingSize != nil && sess.PendingSize.ItemID == item.ID {
		quantity = sess.PendingSize.Quantity
		sess.PendingSize = nil
	}

	lineID := item.ID
	name := item.Name
	if size != "" {
		lineID = item.ID + "_" + size
		name = fmt.Sprintf("%s (%s)", item.Name, size)
	}
	sess.AddItem(models.CartItem{
		ID:        lineID,
		ProductID: item.ID,
		Name:      name,
		UnitPrice: price,
		Quantity:  quantity,
	})

	return rt.sender.SendButtons(ctx, phone, FormatCart(sess), postAddButtons())
}

func (rt *Router) handleCommand(ctx context.Context, phone string, sess *models.Session, cmd Command) error {
	switch cmd {
	case CmdContinueShopping, CmdShowMenu:
		return rt.sendCategoryMenu(ctx, phone)
	case CmdShowCart, CmdEditOrder:
		return rt.sender.SendButtons(ctx, phone, FormatCart(sess), postAddButtons())
	case CmdClearCart:
		sess.ClearCart()
		return rt.sender.SendText(ctx, phone, "Listo, carrito vacío 🗑️. ¿Empezamos de nuevo?")
	case CmdGoCheckout:
		if len(sess.Cart) == 0 {
			return rt.sender.SendText(ctx, phone, "Tu carrito está vacío 🛒. Escribe *ver menú* para empezar.")
		}
		rt.markCheckoutWaits(sess)
		return rt.sender.SendText(ctx, phone, FormatCheckoutSummary(sess))
	}
	return nil
}

func (rt *Router) markCheckoutWaits(sess *models.Session) {
	sess.WaitingForName = sess.Name == ""
	sess.WaitingForAddress = sess.Name != "" && sess.FinalAddress() == ""
}

// ---- menus ----

func (rt *Router) sendCategoryMenu(ctx context.Context, phone string) error {
	categories, err := rt.menu.Categories(ctx)
	if err != nil {
		return err
	}
	sections := []whatsapp.ListSection{{Title: "Categorías", Rows: BuildCategoryMenu(categories)}}
	return rt.sender.SendList(ctx, phone, "¿Qué te provoca hoy? 🍕", "Ver menú", sections)
}

func (rt *Router) sendCategoryPage(ctx context.Context, phone, category string, page int) error {
	items, err := rt.menu.ItemsByCategory(ctx, category)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return rt.sender.SendText(ctx, phone, "Esa categoría está vacía por ahora 😔")
	}
	rows := BuildCategoryRows(category, items, page)
	if rows == nil {
		rows = BuildCategoryRows(category, items, 0)
	}
	sections := []whatsapp.ListSection{{Title: models.CategoryLabel(category), Rows: rows}}
	return rt.sender.SendList(ctx, phone, models.CategoryLabel(category)+" 👇", "Elegir", sections)
}

// ---- free text ----

func (rt *Router) handleText(ctx context.Context, phone string, sess *models.Session, text string) (sessionReset bool, err error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		// Unsupported media arrives as empty text. Still answer something.
		return false, rt.sender.SendButtons(ctx, phone,
			"No te entendí bien 😅. ¿Te ayudo con alguno de estos?", fallbackButtons())
	}

	if handled, err := rt.handleDevCommand(ctx, phone, sess, trimmed); handled {
		return false, err
	}

	// First contact: welcome before anything else. A bare greeting also
	// gets the category menu and stops there.
	if !sess.HasWelcomed && sess.Name == "" && len(sess.History) == 0 {
		sess.HasWelcomed = true
		if err := rt.sender.SendText(ctx, phone, welcomeText); err != nil {
			return false, err
		}
		if IsGreetingOnly(trimmed) {
			return false, rt.sendCategoryMenu(ctx, phone)
		}
	} else if sess.Name != "" && IsGreetingOnly(trimmed) {
		return false, rt.sender.SendText(ctx, phone,
			fmt.Sprintf("¡Hola de nuevo, %s! 👋 ¿Lo de siempre o te muestro el menú?", sess.Name))
	}

	if handled, err := rt.handleCoordsText(ctx, phone, sess, trimmed); handled {
		return false, err
	}

	if cmd := ParseCommand(trimmed); cmd != CmdNone {
		return false, rt.handleCommand(ctx, phone, sess, cmd)
	}

	if handled, err := rt.completePendingAddress(ctx, phone, sess, trimmed); handled {
		return false, err
	}

	if handled, err := rt.handleNameInput(ctx, phone, sess, trimmed); handled {
		return false, err
	}

	if handled, err := rt.handleImplicitAddress(ctx, phone, sess, trimmed); handled {
		return false, err
	}

	return rt.runAgent(ctx, phone, sess, trimmed)
}

func (rt *Router) handleDevCommand(ctx context.Context, phone string, sess *models.Session, text string) (bool, error) {
	if !strings.HasPrefix(text, "!dev") {
		return false, nil
	}
	arg := strings.TrimSpace(strings.TrimPrefix(text, "!dev"))
	switch {
	case arg == "off":
		sess.DevMode = false
		return true, rt.sender.SendText(ctx, phone, "Modo dev desactivado.")
	case sess.DevMode && arg == "reset":
		if err := rt.store.Drop(ctx, phone); err != nil {
			return true, err
		}
		// Blank the in-memory session too so the end-of-message save does
		// not resurrect the state we just dropped.
		*sess = *models.NewSession()
		return true, rt.sender.SendText(ctx, phone, "Sesión borrada 🔄")
	case sess.DevMode && arg == "reload":
		items, err := rt.menu.ForceReload(ctx)
		if err != nil {
			return true, rt.sender.SendText(ctx, phone, "No pude recargar el menú 😅")
		}
		return true, rt.sender.SendText(ctx, phone, fmt.Sprintf("Menú recargado: %d productos 🔧", len(items)))
	case rt.devPassphrase != "" && arg == rt.devPassphrase:
		sess.DevMode = true
		return true, rt.sender.SendText(ctx, phone, "Modo dev activado 🔧")
	default:
		// Wrong passphrase gets silence, not a hint.
		return true, nil
	}
}

// completePendingAddress closes a location-first address change when the
// customer types the street text that was missing.
func (rt *Router) completePendingAddress(ctx context.Context, phone string, sess *models.Session, text string) (bool, error) {
	pending := sess.PendingAddressChange
	if pending == nil || pending.Location == nil || pending.AddressText != "" {
		return false, nil
	}

	candidate := ExtractAddressFromSentence(text)
	if candidate == "" && LooksLikeAddress(text) {
		candidate = text
	}
	if candidate == "" {
		return false, nil
	}

	pending.AddressText = candidate
	pending.AwaitingChoice = false
	sess.OrderAddress = candidate
	sess.Delivery = &models.DeliveryQuote{
		Location:   *pending.Location,
		DistanceKm: pending.DistanceKm,
		Cost:       pending.Cost,
	}
	sess.PendingAddressChange = nil
	sess.WaitingForAddress = false

	if err := rt.sender.SendText(ctx, phone, fmt.Sprintf("📍 Dirección registrada: %s ✅", candidate)); err != nil {
		return true, err
	}
	if len(sess.Cart) > 0 && sess.Name != "" {
		return true, rt.sender.SendText(ctx, phone, FormatCheckoutSummary(sess))
	}
	return true, nil
}

func (rt *Router) handleNameInput(ctx context.Context, phone string, sess *models.Session, text string) (bool, error) {
	candidate := ExtractNameCandidate(text, sess.WaitingForName)
	if candidate == nil {
		if !sess.WaitingForName || LooksLikeAddress(text) || LooksLikeOrder(text) {
			return false, nil
		}
		// Answers the cheap heuristic rejected ("Pérez, Juan", long
		// compound names) get a model opinion before falling through.
		if !digitRe.MatchString(text) {
			if name, ok := rt.validator.ValidateName(ctx, text); ok {
				return true, rt.acceptName(ctx, phone, sess, name)
			}
			return false, nil
		}
		// Digit-bearing answers while we wait for a name ("soy el del
		// dpto 402") go to the classifier instead of being dropped.
		class, err := rt.validator.ClassifyText(ctx, text)
		if err != nil || class == nil {
			return false, nil
		}
		switch class.Kind {
		case "name":
			if AcceptableName(class.Name) {
				return true, rt.acceptName(ctx, phone, sess, class.Name)
			}
		case "address":
			if class.Address != "" {
				rt.stageAddressText(sess, class.Address)
				return true, rt.sender.SendText(ctx, phone,
					fmt.Sprintf("📍 Anotado: %s\nAhora comparte tu ubicación de WhatsApp para calcular el delivery 🛵", class.Address))
			}
		}
		return false, nil
	}

	// Names volunteered mid-order ("me llamo Ana") are always taken;
	// bare texts only count when we asked for a name.
	if candidate.Strategy != "phrase" && !sess.WaitingForName {
		return false, nil
	}
	return true, rt.acceptName(ctx, phone, sess, candidate.Value)
}

func (rt *Router) acceptName(ctx context.Context, phone string, sess *models.Session, name string) error {
	sess.Name = strings.TrimSpace(name)
	sess.WaitingForName = false

	if len(sess.Cart) > 0 {
		rt.markCheckoutWaits(sess)
		return rt.sender.SendText(ctx, phone, FormatCheckoutSummary(sess))
	}
	return rt.sender.SendText(ctx, phone, fmt.Sprintf("¡Un gusto, %s! 🙌 ¿Qué te provoca pedir?", sess.Name))
}

// handleImplicitAddress catches address-looking texts sent without being
// asked, including addresses embedded in order sentences.
func (rt *Router) handleImplicitAddress(ctx context.Context, phone string, sess *models.Session, text string) (bool, error) {
	if LooksLikeOrder(text) {
		embedded := ExtractAddressFromSentence(text)
		if embedded == "" {
			return false, nil
		}
		if extracted, ok := rt.validator.ExtractAddressAndName(ctx, text); ok {
			if extracted.Name != "" && AcceptableName(extracted.Name) && sess.Name == "" {
				sess.Name = extracted.Name
			}
			if extracted.Address != "" {
				embedded = extracted.Address
			}
		}
		rt.stageAddressText(sess, embedded)
		// The order part still needs the model; fall through by reporting
		// unhandled after staging the address.
		return false, nil
	}

	// The digit heuristic misses addresses like "Av. Principal frente al
	// parque", so an explicit address prompt always consults the model.
	if !LooksLikeAddress(text) && !sess.WaitingForAddress {
		return false, nil
	}

	address, ok := rt.validator.ValidateAddress(ctx, text)
	if !ok {
		return false, nil
	}
	rt.stageAddressText(sess, address)
	sess.WaitingForAddress = false

	if sess.Delivery != nil {
		if err := rt.sender.SendText(ctx, phone, fmt.Sprintf("📍 Dirección registrada: %s ✅", address)); err != nil {
			return true, err
		}
		if len(sess.Cart) > 0 && sess.Name != "" {
			return true, rt.sender.SendText(ctx, phone, FormatCheckoutSummary(sess))
		}
		return true, nil
	}
	return true, rt.sender.SendText(ctx, phone,
		fmt.Sprintf("📍 Anotado: %s\nAhora comparte tu ubicación de WhatsApp para calcular el delivery 🛵", address))
}

// stageAddressText records typed address text, pairing it with pending
// coordinates when they already arrived.
func (rt *Router) stageAddressText(sess *models.Session, address string) {
	if pending := sess.PendingAddressChange; pending != nil && pending.Location != nil {
		pending.AddressText = address
		pending.AwaitingChoice = false
		sess.OrderAddress = address
		sess.Delivery = &models.DeliveryQuote{
			Location:   *pending.Location,
			DistanceKm: pending.DistanceKm,
			Cost:       pending.Cost,
		}
		sess.PendingAddressChange = nil
		return
	}
	sess.OrderAddress = address
	sess.PendingAddressChange = &models.PendingAddressChange{
		AddressText: address,
		RequestedAt: time.Now(),
	}
}

// ---- model turns ----

func (rt *Router) runAgent(ctx context.Context, phone string, sess *models.Session, text string) (bool, error) {
	result, err := rt.agent.ProcessMessage(ctx, phone, text, sess)
	if err != nil {
		log.Printf("bot: agent turn for %s failed: %v", phone, err)
		return false, rt.sender.SendButtons(ctx, phone,
			"Uy, algo falló por aquí 😅. ¿Te ayudo con alguno de estos?", fallbackButtons())
	}

	for _, reply := range result.Replies {
		if err := rt.sender.SendText(ctx, phone, reply); err != nil {
			return result.SessionReset, err
		}
	}

	switch {
	case result.SizePrompt != nil:
		item := result.SizePrompt.Item
		return result.SessionReset, rt.sender.SendButtons(ctx, phone,
			fmt.Sprintf("¿De qué tamaño quieres tu %s?", item.Name), sizeButtons(&item))
	case result.ShowMenu:
		return result.SessionReset, rt.sendCategoryMenu(ctx, phone)
	case result.ShowCategory != "":
		return result.SessionReset, rt.sendCategoryPage(ctx, phone, result.ShowCategory, 0)
	case result.ShowCart:
		return result.SessionReset, rt.sender.SendButtons(ctx, phone, FormatCart(sess), postAddButtons())
	case result.ShowCheckout:
		rt.markCheckoutWaits(sess)
		return result.SessionReset, rt.sender.SendText(ctx, phone, FormatCheckoutSummary(sess))
	case result.NeedsFallback:
		return result.SessionReset, rt.sender.SendButtons(ctx, phone,
			"No te entendí bien 😅. ¿Te ayudo con alguno de estos?", fallbackButtons())
	case result.CartUpdated && len(result.Replies) == 0:
		return result.SessionReset, rt.sender.SendButtons(ctx, phone, FormatCart(sess), postAddButtons())
	}
	return result.SessionReset, nil
}
