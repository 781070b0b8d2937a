package bot

import (
	"regexp"
	"strings"

	"github.com/sanmarzano/orderbot/internal/fuzzy"
)

// The cheap classifiers below route the obvious cases (greetings, menus,
// button taps, clearly-an-address texts) without spending a model call.
// Anything ambiguous falls through to the model.

var addressCueRe = regexp.MustCompile(`(?i)\b(jr\.?|jiron|jirón|calle|av\.?|avenida|pasaje|pje\.?|mz\.?|manzana|lote|urb\.?|urbanizacion|urbanización)\b|#`)

// streetNumberRe matches "arequipa 1234" style word+number pairs that
// appear in addresses without an explicit cue word.
var streetNumberRe = regexp.MustCompile(`(?i)[a-záéíóúñ]{3,}\s+\d{1,6}\b`)

var orderKeywordRe = regexp.MustCompile(`(?i)\b(pizza|pizzas|lasagna|lasaña|lasana|gaseosa|bebida|inca kola|coca|chicha|familiar|grande|personal|pepperoni|peperoni|hawaiana|americana|margarita|mixta|quiero|quisiera|pedir|antojo|carrito|menu|menú|promo)\b`)

var digitRe = regexp.MustCompile(`\d`)

var urlLikeRe = regexp.MustCompile(`(?i)https?://`)

// addressStopwords are short conversational replies that can never be an
// address even when they sneak past the length check.
var addressStopwords = map[string]struct{}{
	"ok": {}, "oka": {}, "okay": {}, "si": {}, "sí": {}, "no": {},
	"ya": {}, "listo": {}, "gracias": {}, "confirmar": {}, "confirmo": {},
	"dale": {}, "bueno": {}, "claro": {}, "perfecto": {}, "deacuerdo": {},
}

// LooksLikeOrder reports whether the text mentions products or ordering
// intent.
func LooksLikeOrder(text string) bool {
	return orderKeywordRe.MatchString(text)
}

// LooksLikeAddress is the heuristic gate for treating free text as a
// street address: long enough, not a stock reply, not a link, carries a
// number and either an address cue or a street-plus-number shape.
func LooksLikeAddress(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < 10 {
		return false
	}
	if _, stop := addressStopwords[strings.ToLower(trimmed)]; stop {
		return false
	}
	if urlLikeRe.MatchString(trimmed) {
		return false
	}
	if !digitRe.MatchString(trimmed) {
		return false
	}
	return addressCueRe.MatchString(trimmed) || streetNumberRe.MatchString(trimmed)
}

var greetingWords = map[string]struct{}{
	"hola": {}, "holaa": {}, "holaaa": {}, "buenas": {}, "buenos": {},
	"dias": {}, "tardes": {}, "noches": {}, "alo": {}, "hey": {}, "hello": {},
	"que": {}, "tal": {}, "saludos": {},
}

// IsGreetingOnly reports whether the text is nothing but a short greeting.
func IsGreetingOnly(text string) bool {
	tokens := fuzzy.Tokenize(text)
	if len(tokens) == 0 || len(tokens) > 3 {
		return false
	}
	for _, tok := range tokens {
		if _, ok := greetingWords[tok]; !ok {
			return false
		}
	}
	return true
}

var (
	namePhraseRe = regexp.MustCompile(`(?i)\b(?:me llamo|mi nombre es|soy)\s+([\p{L}\s]{2,40})`)

	addressSentenceRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:entregar|enviar|llevar|mandar)(?:lo|la|melo|mela)?\s+(?:a|en)\s+(.{8,})$`),
		regexp.MustCompile(`(?i)(?:mi direccion es|mi dirección es|direccion:?|dirección:?)\s+(.{8,})$`),
		regexp.MustCompile(`(?i)\bpara\s+(jr\.?|jiron|jirón|calle|av\.?|avenida|pasaje)\s+(.{4,})$`),
	}
)

// ExtractAddressFromSentence pulls an address tail out of sentences like
// "mándalo a av arequipa 1234" or "mi dirección es calle luna 55".
func ExtractAddressFromSentence(text string) string {
	for _, re := range addressSentenceRes {
		if m := re.FindStringSubmatch(text); m != nil {
			candidate := strings.TrimSpace(strings.Join(m[1:], " "))
			if LooksLikeAddress(candidate) {
				return candidate
			}
		}
	}
	// Order texts often carry the address after a trailing " a ":
	// "una familiar de pepperoni a calle los pinos 123".
	if LooksLikeOrder(text) {
		if idx := strings.LastIndex(strings.ToLower(text), " a "); idx >= 0 {
			tail := strings.TrimSpace(text[idx+3:])
			if LooksLikeAddress(tail) {
				return tail
			}
		}
	}
	if addressCueRe.MatchString(text) && LooksLikeAddress(text) && !LooksLikeOrder(text) {
		return strings.TrimSpace(text)
	}
	return ""
}

// AcceptableName filters name candidates: short, no digits, no list
// separators, and not something that reads as an address or an order.
func AcceptableName(candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	if len([]rune(candidate)) < 2 {
		return false
	}
	if digitRe.MatchString(candidate) {
		return false
	}
	if strings.ContainsAny(candidate, ",\n") {
		return false
	}
	if len(strings.Fields(candidate)) > 5 {
		return false
	}
	return !LooksLikeAddress(candidate) && !LooksLikeOrder(candidate)
}

// NameCandidate is the output of one extraction strategy.
type NameCandidate struct {
	Value    string
	Strategy string
}

// ExtractNameCandidate runs the name extraction ladder in priority order:
// an explicit "me llamo X" phrase anywhere; when a name is expected, the
// first line of the message; and finally, when a name is expected, the
// whole message. The first acceptable candidate wins.
func ExtractNameCandidate(text string, expectingName bool) *NameCandidate {
	if m := namePhraseRe.FindStringSubmatch(text); m != nil {
		if candidate := strings.TrimSpace(m[1]); AcceptableName(candidate) {
			return &NameCandidate{Value: candidate, Strategy: "phrase"}
		}
	}
	if !expectingName {
		return nil
	}
	if line, _, found := strings.Cut(text, "\n"); found {
		if candidate := strings.TrimSpace(line); AcceptableName(candidate) {
			return &NameCandidate{Value: candidate, Strategy: "first_line"}
		}
	}
	if candidate := strings.TrimSpace(text); AcceptableName(candidate) {
		return &NameCandidate{Value: candidate, Strategy: "whole_text"}
	}
	return nil
}

// checkoutSynonyms are the fixed texts treated as the go_checkout command.
var checkoutSynonyms = map[string]struct{}{
	"go_checkout":      {},
	"finalizar compra": {},
	"checkout":         {},
	"listo":            {},
	"eso es todo":      {},
	"nada mas":         {},
	"nada más":         {},
	"ya termine":       {},
	"ya terminé":       {},
}

var showCartSynonyms = map[string]struct{}{
	"show_cart":     {},
	"ver carrito":   {},
	"mi carrito":    {},
	"ver mi pedido": {},
}

// Command is a fixed chat command matched before anything else.
type Command int

const (
	CmdNone Command = iota
	CmdContinueShopping
	CmdGoCheckout
	CmdEditOrder
	CmdShowCart
	CmdClearCart
	CmdShowMenu
)

// ParseCommand resolves fixed button ids and their typed synonyms.
func ParseCommand(text string) Command {
	norm := strings.ToLower(strings.TrimSpace(text))
	switch norm {
	case "continue_shopping", "seguir comprando":
		return CmdContinueShopping
	case "edit_order", "editar pedido":
		return CmdEditOrder
	case "clear_cart", "vaciar carrito":
		return CmdClearCart
	case "show_menu", "ver menu", "ver menú", "menu", "menú":
		return CmdShowMenu
	}
	if _, ok := checkoutSynonyms[norm]; ok {
		return CmdGoCheckout
	}
	if _, ok := showCartSynonyms[norm]; ok {
		return CmdShowCart
	}
	return CmdNone
}
