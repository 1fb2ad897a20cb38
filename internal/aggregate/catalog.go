package aggregate

import "salespipe/internal/model"

// Catalog returns the fixed aggregation catalog, in execution order. The
// definitions are build-time constants of the product: six grouped views of
// the enriched table, each persisted and charted.
func Catalog() []Definition {
	return []Definition{
		{
			Name:       "total_sales_per_user",
			GroupBy:    model.ColName,
			Value:      model.ColTotalAmount,
			Reducer:    ReducerSum,
			Order:      OrderGroup,
			Table:      "total_sales_per_user",
			ChartKind:  ChartBar,
			ChartTitle: "Total sales per customer",
			ChartFile:  "total_sales_per_cust.png",
		},
		{
			Name:       "avg_orders_per_prod",
			GroupBy:    model.ColProductID,
			Value:      model.ColQuantity,
			Reducer:    ReducerMean,
			Order:      OrderGroup,
			Table:      "avg_orders_per_prod",
			ChartKind:  ChartBar,
			ChartTitle: "Average order quantity per product",
			ChartFile:  "avg_orders_per_prod.png",
		},
		{
			Name:       "top_selling_prods",
			GroupBy:    model.ColProductID,
			Value:      model.ColQuantity,
			Reducer:    ReducerSum,
			TopN:       10,
			Order:      OrderValueDesc,
			Table:      "top_selling_prods",
			ChartKind:  ChartBar,
			ChartTitle: "Top selling products",
			ChartFile:  "top_selling_prods.png",
		},
		{
			Name:       "quart_sales",
			GroupBy:    model.ColOrderQuarter,
			Value:      model.ColQuantity,
			Reducer:    ReducerSum,
			Order:      OrderChronological,
			Table:      "quart_sales",
			ChartKind:  ChartLine,
			ChartTitle: "Quarterly sales",
			ChartFile:  "quart_sales.png",
		},
		{
			Name:       "month_sales",
			GroupBy:    model.ColOrderMonth,
			Value:      model.ColQuantity,
			Reducer:    ReducerSum,
			Order:      OrderChronological,
			// The table name predates the definition name and is kept for
			// downstream consumers.
			Table:      "monthly_sales",
			ChartKind:  ChartLine,
			ChartTitle: "Monthly sales",
			ChartFile:  "monthly_sales.png",
		},
		{
			Name:       "avg_sales_per_weather",
			GroupBy:    model.ColWeather,
			Value:      model.ColQuantity,
			Reducer:    ReducerMean,
			Order:      OrderGroup,
			Table:      "avg_sales_per_weather",
			ChartKind:  ChartBar,
			ChartTitle: "Average sales per weather condition",
			ChartFile:  "avg_sales_per_weather.png",
		},
	}
}
