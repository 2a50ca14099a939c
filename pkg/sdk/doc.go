// Package nutrisearch is an embeddable Go client for multi-source food search.
//
// It queries Nutritionix, Edamam and Open Food Facts concurrently, normalizes
// their records into one Food shape and removes duplicates, without running
// the HTTP server.
//
//	client, _ := nutrisearch.New(
//	    nutrisearch.WithNutritionix(appID, appKey),
//	    nutrisearch.WithOpenFoodFacts("myapp/1.0 (me@example.com)"),
//	)
//	page, _ := client.Search(ctx, "apple", 0, 20)
//	for _, f := range page.Foods {
//	    fmt.Println(f.Name, f.Origin)
//	}
//
// Slow or failing providers never fail a search; they simply contribute no
// results. Lookups that have a single answer (Barcode, ImageURL, Nutrients)
// return errors matching ErrNotFound or ErrSourceUnavailable.
package nutrisearch
