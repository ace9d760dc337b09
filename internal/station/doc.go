// Package station is the HTTP client for a labelgen label station.
//
// Stations are usually found with the discovery package:
//
//	stations, _ := discovery.Scan(ctx, 5*time.Second)
//	c := station.NewClient(stations[0])
//
//	job, err := c.SubmitLabels(ctx, api.LabelRequest{
//		Items: []api.LabelItem{{Category: "폰스트랩", ID: 3, Quantity: 20}},
//	})
//	job, err = c.WaitForJob(ctx, job.ID, nil)
//	for _, f := range job.Files {
//		c.Download(ctx, job.ID, f, "output")
//	}
//
// Errors are *StationError values. GetShortErrorMessage and
// GetTroubleshootingHint turn them into text for the terminal; hints sent
// by the station take precedence over local ones.
//
// Only GET requests are retried. Mutations are sent once so a timed-out
// POST never creates a product or job twice.
package station
