package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/rmendes/storefront-api/internal/config"
	"github.com/rmendes/storefront-api/internal/telemetry"
)

type seedReview struct {
	author  string
	comment string
	rating  int
}

type seedProduct struct {
	name        string
	description string
	price       string
	imageURL    string
	category    string
	stock       int
	rating      string
	reviews     []seedReview
}

var sampleProducts = []seedProduct{
	{
		name:        "Wireless Headphones",
		description: "Premium noise-cancelling wireless headphones with 30-hour battery life. Experience crystal-clear audio quality.",
		price:       "199.99",
		imageURL:    "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=500",
		category:    "Electronics",
		stock:       50,
		rating:      "4.5",
		reviews:     []seedReview{{author: "John Doe", comment: "Great sound quality!", rating: 5}},
	},
	{
		name:        "Smart Watch Pro",
		description: "Advanced fitness tracking smartwatch with heart rate monitor and GPS. Stay connected on the go.",
		price:       "299.99",
		imageURL:    "https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=500",
		category:    "Electronics",
		stock:       35,
		rating:      "4.7",
		reviews:     []seedReview{{author: "Jane Smith", comment: "Love the fitness features!", rating: 5}},
	},
	{
		name:        "Cotton T-Shirt",
		description: "Comfortable 100% organic cotton t-shirt. Perfect for everyday wear with a modern fit.",
		price:       "29.99",
		imageURL:    "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=500",
		category:    "Clothing",
		stock:       100,
		rating:      "4.3",
	},
	{
		name:        "Denim Jeans",
		description: "Classic fit denim jeans with stretch comfort. Durable and stylish for any occasion.",
		price:       "59.99",
		imageURL:    "https://images.unsplash.com/photo-1542272604-787c3835535d?w=500",
		category:    "Clothing",
		stock:       75,
		rating:      "4.6",
		reviews:     []seedReview{{author: "Mike Johnson", comment: "Perfect fit!", rating: 5}},
	},
	{
		name:        "JavaScript: The Complete Guide",
		description: "Comprehensive guide to modern JavaScript programming. From basics to advanced concepts.",
		price:       "39.99",
		imageURL:    "https://images.unsplash.com/photo-1532012197267-da84d127e765?w=500",
		category:    "Books",
		stock:       60,
		rating:      "4.8",
		reviews:     []seedReview{{author: "Sarah Lee", comment: "Best JS book ever!", rating: 5}},
	},
	{
		name:        "Laptop Stand",
		description: "Ergonomic aluminum laptop stand with adjustable height. Improve your posture while working.",
		price:       "49.99",
		imageURL:    "https://images.unsplash.com/photo-1527864550417-7fd91fc51a46?w=500",
		category:    "Electronics",
		stock:       45,
		rating:      "4.4",
	},
	{
		name:        "Yoga Mat Premium",
		description: "Non-slip premium yoga mat with extra cushioning. Perfect for yoga, pilates, and floor exercises.",
		price:       "34.99",
		imageURL:    "https://images.unsplash.com/photo-1601925260368-ae2f83cf8b7f?w=500",
		category:    "Sports",
		stock:       80,
		rating:      "4.7",
		reviews:     []seedReview{{author: "Emma Wilson", comment: "Great quality mat!", rating: 5}},
	},
	{
		name:        "Water Bottle",
		description: "Insulated stainless steel water bottle keeps drinks cold for 24 hours. BPA-free and eco-friendly.",
		price:       "24.99",
		imageURL:    "https://images.unsplash.com/photo-1602143407151-7111542de6e8?w=500",
		category:    "Sports",
		stock:       120,
		rating:      "4.5",
	},
	{
		name:        "LED Desk Lamp",
		description: "Modern LED desk lamp with adjustable brightness and color temperature. Energy efficient.",
		price:       "44.99",
		imageURL:    "https://images.unsplash.com/photo-1507473885765-e6ed057f782c?w=500",
		category:    "Home & Garden",
		stock:       55,
		rating:      "4.6",
	},
	{
		name:        "Plant Pot Set",
		description: "Set of 3 ceramic plant pots with drainage holes. Modern design for indoor plants.",
		price:       "32.99",
		imageURL:    "https://images.unsplash.com/photo-1485955900006-10f4d324d411?w=500",
		category:    "Home & Garden",
		stock:       90,
		rating:      "4.4",
		reviews:     []seedReview{{author: "David Brown", comment: "Beautiful pots!", rating: 4}},
	},
	{
		name:        "Building Blocks Set",
		description: "Creative building blocks set with 500+ pieces. Develops creativity and motor skills.",
		price:       "49.99",
		imageURL:    "https://images.unsplash.com/photo-1558060370-d644479cb6f7?w=500",
		category:    "Toys",
		stock:       65,
		rating:      "4.9",
		reviews:     []seedReview{{author: "Lisa Anderson", comment: "Kids love it!", rating: 5}},
	},
	{
		name:        "Skincare Set",
		description: "Complete skincare routine set with cleanser, toner, and moisturizer. Natural ingredients.",
		price:       "79.99",
		imageURL:    "https://images.unsplash.com/photo-1556228720-195a672e8a03?w=500",
		category:    "Beauty",
		stock:       40,
		rating:      "4.6",
	},
	{
		name:        "Bluetooth Speaker",
		description: "Portable waterproof Bluetooth speaker with 360° sound. 12-hour battery life.",
		price:       "89.99",
		imageURL:    "https://images.unsplash.com/photo-1608043152269-423dbba4e7e1?w=500",
		category:    "Electronics",
		stock:       70,
		rating:      "4.7",
	},
}

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.PostgresURL == "" {
		logger.Error("POSTGRES_URL is required")
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", "error", err)
		os.Exit(1)
	}
	defer func() { _ = tx.Rollback() }()

	// Re-seeding replaces the catalog wholesale.
	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		logger.Error("failed to clear products", "error", err)
		os.Exit(1)
	}

	now := time.Now().UTC()
	for _, p := range sampleProducts {
		productID := uuid.New().String()
		price := decimal.RequireFromString(p.price)
		rating := decimal.RequireFromString(p.rating)

		_, err := tx.ExecContext(ctx, `
			INSERT INTO products (id, name, description, price, image_url, category, stock, rating, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, productID, p.name, p.description, price, p.imageURL, p.category, p.stock, rating, now)
		if err != nil {
			logger.Error("failed to insert product", "error", err, "name", p.name)
			os.Exit(1)
		}

		for _, rev := range p.reviews {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO product_reviews (id, product_id, author, comment, rating, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, uuid.New().String(), productID, rev.author, rev.comment, rev.rating, now)
			if err != nil {
				logger.Error("failed to insert review", "error", err, "product", p.name)
				os.Exit(1)
			}
		}

		// Timestamps step so the default listing order is stable.
		now = now.Add(time.Second)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit seed", "error", err)
		os.Exit(1)
	}

	logger.Info("catalog seeded", "products", len(sampleProducts))
}
