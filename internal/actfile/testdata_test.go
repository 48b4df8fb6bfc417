package actfile

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleActivity = `SIMISA@@@@@@@@@@JINX0a0t______

Tr_Activity (
	Serial ( 1 )
	Tr_Activity_Header (
		RouteID ( DEMO )
		Name ( "Morning (Local) Run" )
		Description ( "Take the 06:10 " +
			"stopping service." )
		Briefing ( "Drive carefully." )
		PathID ( LOCAL_UP )
		StartTime ( 6 10 0 )
		Season ( 1 )
		Weather ( 0 )
	)
	Tr_Activity_File (
		Player_Service_Definition ( LOCAL_UP
			Player_Traffic_Definition ( 22200
				ArrivalTime ( 0 )
			)
		)
		Events (
			EventCategoryLocation (
				EventTypeLocation ( )
				ID ( 1 )
				Name ( "Arrive Halt" )
				Outcomes ( DisplayMessage ( "Welcome (again)" ) )
			)
			EventCategoryTime (
				ID ( 2 )
				Name ( Fog )
				Time ( 600 )
				Outcomes ( ORTSWeatherChange ( ORTSOvercast ( 0.9 300 ) ORTSFog ( 400 300 ) ) )
			)
		)
	)
)
`

const sampleBlock = "\t\tEventCategoryTime ( ID ( 9000 ) Name ( WTHLINK_Interval_0 ) Time ( 0 ) Outcomes ( ORTSWeatherChange ( ORTSOvercast ( 0.20 60 ) ORTSFog ( 40000 60 ) ORTSPrecipitationIntensity ( 0.00000 60 ) ORTSPrecipitationLiquidity ( 1.0 60 ) ) ) )\n" +
	"\t\tEventCategoryTime ( ID ( 800000 ) Name ( WTHLINK_wind_0_0 ) Time ( 3 ) Outcomes ( ORTSActivitySound ( ORTSActSoundFile ( \"..\\\\SOUND\\\\WEATHERLINK_w1.wav\" Everywhere ) ) ) )"

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
