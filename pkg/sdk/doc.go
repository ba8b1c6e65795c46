// Package sdk embeds the carefinder doctor index in another Go program.
//
// Build an index directly from rows you already hold:
//
//	ix := sdk.BuildIndex(sdk.Thresholds{MinDoctorScore: 50, MinFeatureScore: 50}, src)
//	hits := ix.FindDoctors(sdk.FindDoctorsParams{
//	    CurrentTime:              time.Now(),
//	    ZipCode:                  "10001",
//	    AppointmentLengthMinutes: 30,
//	    Limit:                    10,
//	})
//
// Or let a Client load and refresh snapshots from a store:
//
//	client, _ := sdk.New(ctx, sdk.WithRedis("localhost:6379", ""), sdk.WithThresholds(th))
//	defer client.Close()
//	hits, _ := client.FindDoctors(ctx, params)
//	detail, err := client.DoctorDetail(ctx, time.Now(), "1234567890")
//	if errors.Is(err, sdk.ErrDoctorNotFound) { ... }
package sdk
