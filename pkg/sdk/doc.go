// Package promptdex provides a Go client for the promptdex HTTP API:
// hybrid prompt search, recommendations, trending and prompt authoring.
//
// # Searching
//
//	client, _ := promptdex.New("http://localhost:8080",
//	    promptdex.WithAPIKey(os.Getenv("PROMPTDEX_API_KEY")),
//	    promptdex.WithUserID("u-42"),
//	)
//	page, _ := client.Search(ctx, "summarize meeting notes", promptdex.Hybrid, 20)
//
// # Recommendations
//
//	recs, _ := client.Recommendations(ctx, 10)
//	_ = client.RecordInteraction(ctx, recs.Items[0].ID, promptdex.Viewed)
//
// Requests are made on behalf of the user set with WithUserID. ForUser returns
// a copy of the client bound to another user.
package promptdex
