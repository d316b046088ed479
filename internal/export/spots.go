package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/signalsfoundry/searcharc/model"
)

// spotColumns mirrors the spot-database CSV layout the ingestion loader
// reads back, so a fetched file feeds straight into an analysis.
var spotColumns = []string{
	"time", "band", "tx_sign", "tx_lat", "tx_lon",
	"rx_sign", "rx_lat", "rx_lon",
	"frequency", "snr", "drift", "power", "distance",
}

// WriteSpotsCSV writes records in the spot-database column order, header
// first. Frequencies stay in Hz as the database reports them.
func WriteSpotsCSV(w io.Writer, records []model.SignalRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(spotColumns); err != nil {
		return fmt.Errorf("WriteSpotsCSV: write failed: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Time.UTC().Format(timeColumnLayout),
			r.Band,
			r.TxSign,
			formatCoord(r.TxLat),
			formatCoord(r.TxLon),
			r.RxSign,
			formatCoord(r.RxLat),
			formatCoord(r.RxLon),
			formatNumber(r.Frequency),
			formatNumber(r.SNR),
			formatNumber(r.Drift),
			formatNumber(r.Power),
			formatNumber(r.DistanceKm),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("WriteSpotsCSV: write failed: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("WriteSpotsCSV: flush failed: %w", err)
	}
	return nil
}
