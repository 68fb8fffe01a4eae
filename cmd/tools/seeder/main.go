package main

import (
	"database/sql"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedProducts(db)
	seedVouchers(db)

	log.Println("Seeding completed successfully!")
}

type optionValue struct {
	Value     string
	Surcharge int64
}

type optionGroup struct {
	Name     string
	Required bool
	Values   []optionValue
}

type product struct {
	Name        string
	Slug        string
	Description string
	ImageURL    string
	Category    string
	Price       int64
	Stock       int
	Options     []optionGroup
}

func seedProducts(db *sql.DB) {
	sizes := optionGroup{
		Name:     "Size",
		Required: true,
		Values: []optionValue{
			{"Small", 0},
			{"Medium", 20000},
			{"Large", 45000},
		},
	}

	products := []product{
		{
			Name:        "Banh Mi Baguette",
			Slug:        "banh-mi-baguette",
			Description: "Crisp Vietnamese baguette baked fresh every morning.",
			ImageURL:    "/images/banh-mi-baguette.jpg",
			Category:    "bread",
			Price:       15000,
			Stock:       120,
		},
		{
			Name:        "Sourdough Loaf",
			Slug:        "sourdough-loaf",
			Description: "Slow-fermented white sourdough with a chewy crumb.",
			ImageURL:    "/images/sourdough-loaf.jpg",
			Category:    "bread",
			Price:       65000,
			Stock:       40,
		},
		{
			Name:        "Chocolate Birthday Cake",
			Slug:        "chocolate-birthday-cake",
			Description: "Layered chocolate sponge with dark ganache.",
			ImageURL:    "/images/chocolate-birthday-cake.jpg",
			Category:    "cake",
			Price:       250000,
			Stock:       15,
			Options: []optionGroup{
				sizes,
				{
					Name: "Message",
					Values: []optionValue{
						{"None", 0},
						{"Happy Birthday", 15000},
						{"Congratulations", 15000},
					},
				},
			},
		},
		{
			Name:        "Matcha Cream Cake",
			Slug:        "matcha-cream-cake",
			Description: "Light matcha sponge with fresh cream and azuki beans.",
			ImageURL:    "/images/matcha-cream-cake.jpg",
			Category:    "cake",
			Price:       280000,
			Stock:       12,
			Options:     []optionGroup{sizes},
		},
		{
			Name:        "Butter Croissant",
			Slug:        "butter-croissant",
			Description: "Laminated with French butter, 27 layers.",
			ImageURL:    "/images/butter-croissant.jpg",
			Category:    "pastry",
			Price:       35000,
			Stock:       80,
			Options: []optionGroup{
				{
					Name: "Filling",
					Values: []optionValue{
						{"Plain", 0},
						{"Almond", 10000},
						{"Chocolate", 12000},
					},
				},
			},
		},
		{
			Name:        "Pain au Chocolat",
			Slug:        "pain-au-chocolat",
			Description: "Two batons of dark chocolate wrapped in croissant dough.",
			ImageURL:    "/images/pain-au-chocolat.jpg",
			Category:    "pastry",
			Price:       40000,
			Stock:       60,
		},
		{
			Name:        "Egg Tart Box",
			Slug:        "egg-tart-box",
			Description: "Six silky custard tarts in flaky pastry shells.",
			ImageURL:    "/images/egg-tart-box.jpg",
			Category:    "pastry",
			Price:       90000,
			Stock:       30,
		},
		{
			Name:        "Chocolate Chip Cookies",
			Slug:        "chocolate-chip-cookies",
			Description: "Chewy cookies with 60% dark chocolate chunks, pack of eight.",
			ImageURL:    "/images/chocolate-chip-cookies.jpg",
			Category:    "cookie",
			Price:       75000,
			Stock:       50,
		},
		{
			Name:        "Macaron Gift Set",
			Slug:        "macaron-gift-set",
			Description: "Twelve assorted macarons in a ribboned gift box.",
			ImageURL:    "/images/macaron-gift-set.jpg",
			Category:    "cookie",
			Price:       180000,
			Stock:       25,
			Options: []optionGroup{
				{
					Name: "Box",
					Values: []optionValue{
						{"Classic", 0},
						{"Gift Wrap", 20000},
					},
				},
			},
		},
		{
			Name:        "Tiramisu Cup",
			Slug:        "tiramisu-cup",
			Description: "Espresso-soaked ladyfingers under mascarpone cream.",
			ImageURL:    "/images/tiramisu-cup.jpg",
			Category:    "dessert",
			Price:       55000,
			Stock:       45,
		},
	}

	log.Println("Seeding Products...")
	for _, p := range products {
		var productID string
		err := db.QueryRow(`
			INSERT INTO products (name, slug, description, image_url, category, price, stock)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (slug) DO UPDATE SET
				name = EXCLUDED.name,
				description = EXCLUDED.description,
				image_url = EXCLUDED.image_url,
				category = EXCLUDED.category,
				price = EXCLUDED.price,
				stock = EXCLUDED.stock,
				updated_at = now()
			RETURNING id;
		`, p.Name, p.Slug, p.Description, p.ImageURL, p.Category, p.Price, p.Stock).Scan(&productID)
		if err != nil {
			log.Fatalf("Failed to seed product %s: %v", p.Slug, err)
		}

		for _, g := range p.Options {
			var groupID string
			err := db.QueryRow(`
				INSERT INTO option_groups (product_id, name, required)
				VALUES ($1, $2, $3)
				ON CONFLICT (product_id, name) DO UPDATE SET required = EXCLUDED.required
				RETURNING id;
			`, productID, g.Name, g.Required).Scan(&groupID)
			if err != nil {
				log.Fatalf("Failed to seed option group %s/%s: %v", p.Slug, g.Name, err)
			}

			for _, v := range g.Values {
				_, err := db.Exec(`
					INSERT INTO option_values (group_id, value, surcharge)
					VALUES ($1, $2, $3)
					ON CONFLICT (group_id, value) DO UPDATE SET surcharge = EXCLUDED.surcharge;
				`, groupID, v.Value, v.Surcharge)
				if err != nil {
					log.Fatalf("Failed to seed option value %s/%s/%s: %v", p.Slug, g.Name, v.Value, err)
				}
			}
		}
	}
	log.Printf("Seeded %d products", len(products))
}

func seedVouchers(db *sql.DB) {
	now := time.Now()
	monthEnd := now.AddDate(0, 1, 0)

	type voucher struct {
		Code         string
		Scope        string
		ProductSlug  string
		PercentBps   *int32
		HardValue    *int64
		MinQty       int32
		MaxQty       int32
		MinSpend     int64
		UsageLimit   *int32
		PerUserLimit *int32
	}

	vouchers := []voucher{
		{Code: "SWEET10", Scope: "item", ProductSlug: "chocolate-birthday-cake", PercentBps: bps(1000), PerUserLimit: limit(1)},
		{Code: "CROISSANT5K", Scope: "item", ProductSlug: "butter-croissant", HardValue: amount(5000), MinQty: 2, PerUserLimit: limit(3)},
		{Code: "MACARONLOVE", Scope: "item", ProductSlug: "macaron-gift-set", PercentBps: bps(1500), MaxQty: 2, UsageLimit: limit(100)},
		{Code: "FREESHIP", Scope: "order", HardValue: amount(25000), MinSpend: 300000, PerUserLimit: limit(1)},
		{Code: "GRANDOPEN", Scope: "order", PercentBps: bps(500), MinSpend: 200000, UsageLimit: limit(500), PerUserLimit: limit(1)},
	}

	log.Println("Seeding Vouchers...")
	for _, v := range vouchers {
		var productID *string
		if v.ProductSlug != "" {
			var id string
			if err := db.QueryRow("SELECT id FROM products WHERE slug = $1", v.ProductSlug).Scan(&id); err != nil {
				log.Fatalf("Failed to find product %s for voucher %s: %v", v.ProductSlug, v.Code, err)
			}
			productID = &id
		}

		_, err := db.Exec(`
			INSERT INTO vouchers (code, scope, product_id, percent_bps, hard_value, min_qty, max_qty, min_spend, starts_at, ends_at, usage_limit, per_user_limit)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (code) DO UPDATE SET
				scope = EXCLUDED.scope,
				product_id = EXCLUDED.product_id,
				percent_bps = EXCLUDED.percent_bps,
				hard_value = EXCLUDED.hard_value,
				min_qty = EXCLUDED.min_qty,
				max_qty = EXCLUDED.max_qty,
				min_spend = EXCLUDED.min_spend,
				starts_at = EXCLUDED.starts_at,
				ends_at = EXCLUDED.ends_at,
				usage_limit = EXCLUDED.usage_limit,
				per_user_limit = EXCLUDED.per_user_limit,
				active = true;
		`, v.Code, v.Scope, productID, v.PercentBps, v.HardValue, v.MinQty, v.MaxQty, v.MinSpend, now, monthEnd, v.UsageLimit, v.PerUserLimit)
		if err != nil {
			log.Fatalf("Failed to seed voucher %s: %v", v.Code, err)
		}
	}
	log.Printf("Seeded %d vouchers", len(vouchers))
}

func bps(v int32) *int32    { return &v }
func amount(v int64) *int64 { return &v }
func limit(v int32) *int32  { return &v }
