package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

type productSales struct {
	ProductID primitive.ObjectID `json:"productId"`
	Title     string             `json:"title"`
	UnitsSold int                `json:"unitsSold"`
	Revenue   float64            `json:"revenue"`
}

// tallySales aggregates units and revenue per product from the prices
// snapshotted at purchase time. Items for other sellers' products are skipped.
// Revenue is accumulated in decimals and rounded once at the end.
func tallySales(products []models.Product, orders []models.Order) []productSales {
	sellerProducts := make(map[primitive.ObjectID]int, len(products))
	report := make([]productSales, 0, len(products))
	for i, product := range products {
		sellerProducts[product.ID] = i
		report = append(report, productSales{ProductID: product.ID, Title: product.Title})
	}

	revenues := make([]decimal.Decimal, len(report))
	for _, order := range orders {
		for _, item := range order.Items {
			index, ok := sellerProducts[item.ProductID]
			if !ok {
				continue
			}
			report[index].UnitsSold += item.Quantity
			revenues[index] = revenues[index].Add(
				decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))),
			)
		}
	}

	for i := range report {
		report[i].Revenue = revenues[i].Round(2).InexactFloat64()
	}

	return report
}

// sellerSales loads the seller's products and their paid and fulfilled orders,
// then tallies the sales.
func sellerSales(ctx context.Context, db *mongo.Database, sellerID primitive.ObjectID) ([]productSales, error) {
	productCursor, err := db.Collection("products").Find(ctx, bson.M{"sellerId": sellerID})
	if err != nil {
		return nil, err
	}
	defer productCursor.Close(ctx)

	var products []models.Product
	if err := productCursor.All(ctx, &products); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return []productSales{}, nil
	}

	productIDs := make([]primitive.ObjectID, 0, len(products))
	for _, product := range products {
		productIDs = append(productIDs, product.ID)
	}

	orderCursor, err := db.Collection("orders").Find(ctx, bson.M{
		"status":          bson.M{"$in": []string{models.OrderStatusPaid, models.OrderStatusFulfilled}},
		"items.productId": bson.M{"$in": productIDs},
	})
	if err != nil {
		return nil, err
	}
	defer orderCursor.Close(ctx)

	var orders []models.Order
	if err := orderCursor.All(ctx, &orders); err != nil {
		return nil, err
	}

	return tallySales(products, orders), nil
}

// SellerReport returns per-product sales for the authenticated seller.
func SellerReport(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/seller/report"
		defer handlePanic(c, route)

		sellerID := c.MustGet("userId").(primitive.ObjectID)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		report, err := sellerSales(ctx, db, sellerID)
		if err != nil {
			log.Println("[REPORT] [ERROR] sales aggregation failed:", err)
			respondWithError(c, KindServerError, route, "db error")
			return
		}

		totalUnits := 0
		totalRevenue := decimal.Zero
		for _, entry := range report {
			totalUnits += entry.UnitsSold
			totalRevenue = totalRevenue.Add(decimal.NewFromFloat(entry.Revenue))
		}

		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"products":     report,
			"totalUnits":   totalUnits,
			"totalRevenue": totalRevenue.Round(2).InexactFloat64(),
		})
	}
}

// ExportSellerReport downloads the same sales report as an Excel workbook.
func ExportSellerReport(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/seller/report/export"
		defer handlePanic(c, route)

		sellerID := c.MustGet("userId").(primitive.ObjectID)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		report, err := sellerSales(ctx, db, sellerID)
		if err != nil {
			log.Println("[REPORT] [ERROR] sales aggregation failed:", err)
			respondWithError(c, KindServerError, route, "db error")
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Sales")
		if err != nil {
			respondWithError(c, KindServerError, route, "failed to create sheet")
			return
		}

		headerRow := sheet.AddRow()
		for _, h := range []string{"ProductID", "Title", "UnitsSold", "Revenue"} {
			headerRow.AddCell().SetValue(h)
		}

		for _, entry := range report {
			row := sheet.AddRow()
			row.AddCell().SetValue(entry.ProductID.Hex())
			row.AddCell().SetValue(entry.Title)
			row.AddCell().SetValue(entry.UnitsSold)
			row.AddCell().SetValue(entry.Revenue)
		}

		c.Header("Content-Disposition", "attachment; filename=sales-report.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

		if err := file.Write(c.Writer); err != nil {
			log.Println("[REPORT] [ERROR] xlsx write failed:", err)
			respondWithError(c, KindServerError, route, "failed to write report")
			return
		}
	}
}
