package chatbot

import (
	"math/rand"
	"strings"
	"time"
)

// Category pairs trigger keywords with candidate replies. Matching walks
// the categories in order and the first hit wins, so more specific
// categories must come before broader ones.
type Category struct {
	Name     string
	Keywords []string
	Replies  []string
}

// Responder is a stateless keyword matcher over a fixed response table.
// The random source is injected so tests can seed it.
type Responder struct {
	categories []Category
	fallback   []string
	rng        *rand.Rand
}

func NewResponder(categories []Category, fallback []string, rng *rand.Rand) *Responder {
	return &Responder{categories: categories, fallback: fallback, rng: rng}
}

// NewDefaultResponder builds a responder over the default response table.
func NewDefaultResponder() *Responder {
	return NewResponder(DefaultCategories(), DefaultFallback(), rand.New(rand.NewSource(time.Now().UnixNano())))
}

// Respond picks a reply for the message: lower-case the input, find the
// first category with a keyword substring match, choose uniformly among
// its replies. Unmatched input gets a fallback reply.
func (r *Responder) Respond(message string) string {
	lowered := strings.ToLower(message)

	for _, cat := range r.categories {
		for _, kw := range cat.Keywords {
			if strings.Contains(lowered, kw) {
				return r.pick(cat.Replies)
			}
		}
	}

	return r.pick(r.fallback)
}

func (r *Responder) pick(replies []string) string {
	return replies[r.rng.Intn(len(replies))]
}

// DefaultCategories is the storefront's canned response table, in match
// priority order.
func DefaultCategories() []Category {
	return []Category{
		{
			Name:     "greeting",
			Keywords: []string{"hello", "hi", "hey"},
			Replies: []string{
				"Hello! Welcome to our store! How can I help you today?",
				"Hi there! I'm here to help you find the perfect products. What are you looking for?",
				"Welcome! I can help you with product recommendations, order status, or any questions you have.",
			},
		},
		{
			Name:     "electronics",
			Keywords: []string{"electronic", "phone", "laptop", "computer"},
			Replies: []string{
				"We have great electronics! Check out our wireless headphones, smart watches, laptops and more!",
				"Our electronics section includes smartphones, laptops, tablets, headphones, and smart devices. What specific device are you looking for?",
			},
		},
		{
			Name:     "clothing",
			Keywords: []string{"cloth", "shirt", "dress", "jeans"},
			Replies: []string{
				"Our clothing collection includes cotton t-shirts, denim jeans, winter jackets and summer dresses!",
				"We have stylish and comfortable clothing for all occasions. What style are you looking for?",
			},
		},
		{
			Name:     "books",
			Keywords: []string{"book", "read", "programming"},
			Replies: []string{
				"We have excellent books covering programming, technology, and learning resources!",
				"Our book collection covers programming, technology, and learning resources. What subject interests you?",
			},
		},
		{
			Name:     "cart",
			Keywords: []string{"cart", "add to cart"},
			Replies: []string{
				"You can add items to your cart by clicking the 'Add to Cart' button on any product page.",
				"To view your cart, tap the cart icon in the bottom navigation bar.",
				"Your cart will show all selected items with quantities and total price.",
			},
		},
		{
			Name:     "order",
			Keywords: []string{"order", "purchase", "track"},
			Replies: []string{
				"To place an order, add items to your cart and proceed to checkout.",
				"You can track your orders in the Profile section under Order History.",
				"Orders typically ship within 1-2 business days.",
			},
		},
		{
			Name:     "products",
			Keywords: []string{"product", "item", "buy"},
			Replies: []string{
				"We have amazing products in Electronics, Clothing, Books, Home & Garden, Sports, Toys, Beauty, and Food categories!",
				"What type of product are you interested in? I can help you find the best options.",
			},
		},
		{
			Name:     "help",
			Keywords: []string{"help", "support"},
			Replies: []string{
				"I can help you with:\n• Product recommendations\n• Order status\n• Cart assistance\n• General questions\n\nWhat would you like to know?",
			},
		},
	}
}

// DefaultFallback is used when no keyword matches.
func DefaultFallback() []string {
	return []string{
		"I'm not sure I understand. Could you rephrase that?",
		"I can help you with product information, orders, or general questions. What do you need?",
		"Let me know if you need help finding products, checking orders, or have any other questions!",
	}
}

// Suggestions are the canned prompts the client offers above the input box.
func Suggestions() []string {
	return []string{
		"What products do you have?",
		"Help me find electronics",
		"How do I add items to cart?",
		"What's my order status?",
		"Tell me about your clothing",
		"Show me books",
		"How can I track my order?",
	}
}
