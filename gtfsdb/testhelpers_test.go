package gtfsdb

import (
	"archive/zip"
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Niyant4280/bus-niyojak/internal/appconf"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(Config{DBPath: ":memory:", Env: appconf.Test})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// buildFeed zips the given GTFS files in memory.
func buildFeed(t *testing.T, files map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zipWriter.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zipWriter.Close())
	return buf.Bytes()
}

func metroFeedFiles() map[string]string {
	return map[string]string{
		"agency.txt": `agency_id,agency_name,agency_url,agency_timezone
DMRC,Delhi Metro Rail Corporation,https://www.delhimetrorail.com,Asia/Kolkata
`,
		"routes.txt": `route_id,agency_id,route_short_name,route_long_name,route_type,route_color
R_RD,DMRC,R_RD,RED_Rithala to Dilshad Garden,1,FF0000
Y_HQ,DMRC,Y_HQ,YELLOW_Samaypur Badli to HUDA City Centre,1,FFFF00
`,
		"stops.txt": `stop_id,stop_name,stop_desc,stop_lat,stop_lon
RITHALA,Rithala,Red line terminus,28.7175,77.1031
KASHMERE_GATE,Kashmere Gate,Interchange,28.6675,77.2282
DILSHAD_GARDEN,Dilshad Garden,,28.6751,77.3195
`,
		"calendar.txt": `service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date
weekday,1,1,1,1,1,0,0,20240101,20241231
`,
		"trips.txt": `route_id,service_id,trip_id,trip_headsign,direction_id,shape_id,wheelchair_accessible
R_RD,weekday,R_RD_001,Dilshad Garden,0,SHP_RD,1
R_RD,weekday,R_RD_002,Rithala,1,,0
`,
		"stop_times.txt": `trip_id,arrival_time,departure_time,stop_id,stop_sequence
R_RD_001,06:00:00,06:00:00,RITHALA,1
R_RD_001,06:15:00,06:16:00,KASHMERE_GATE,2
R_RD_001,06:30:00,06:30:00,DILSHAD_GARDEN,3
R_RD_002,23:50:00,23:50:00,DILSHAD_GARDEN,1
R_RD_002,24:10:00,24:10:00,RITHALA,2
`,
		"shapes.txt": `shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence
SHP_RD,28.7175,77.1031,1
SHP_RD,28.6675,77.2282,2
SHP_RD,28.6751,77.3195,3
`,
	}
}
