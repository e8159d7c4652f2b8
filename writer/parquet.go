package writer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"bitcraftsd/models"
)

// ReportRecord is one report row as stored in parquet.
type ReportRecord struct {
	RunID        string `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	GeneratedAt  int64  `parquet:"name=generated_at, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Name         string `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	ItemType     string `parquet:"name=item_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	Quantity     int64  `parquet:"name=quantity, type=INT64"`
	MaxSellOrder int64  `parquet:"name=max_sell_order, type=INT64"`
	MinBuyOrder  int64  `parquet:"name=min_buy_order, type=INT64"`
	TotalSpend   int64  `parquet:"name=total_spend, type=INT64"`
	TotalIncome  int64  `parquet:"name=total_income, type=INT64"`
	TotalProfit  int64  `parquet:"name=total_profit, type=INT64"`
}

// CurvePointRecord is one depth of one curve.
type CurvePointRecord struct {
	RunID        string  `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Item         string  `parquet:"name=item, type=BYTE_ARRAY, convertedtype=UTF8"`
	Side         string  `parquet:"name=side, type=BYTE_ARRAY, convertedtype=UTF8"`
	Scope        string  `parquet:"name=scope, type=BYTE_ARRAY, convertedtype=UTF8"`
	Label        string  `parquet:"name=label, type=BYTE_ARRAY, convertedtype=UTF8"`
	Quantity     int64   `parquet:"name=quantity, type=INT64"`
	TotalPrice   int64   `parquet:"name=total_price, type=INT64"`
	AveragePrice float64 `parquet:"name=average_price, type=DOUBLE"`
}

// memoryFileWriter implements ParquetFile for in-memory writing
type memoryFileWriter struct {
	buffer *bytes.Buffer
}

func newMemoryFileWriter() *memoryFileWriter {
	return &memoryFileWriter{buffer: &bytes.Buffer{}}
}

func (mfw *memoryFileWriter) Create(name string) (source.ParquetFile, error) {
	return mfw, nil
}

func (mfw *memoryFileWriter) Open(name string) (source.ParquetFile, error) {
	return mfw, nil
}

// Seek only reports the current size; the writer never seeks backwards.
func (mfw *memoryFileWriter) Seek(offset int64, whence int) (int64, error) {
	return int64(mfw.buffer.Len()), nil
}

func (mfw *memoryFileWriter) Read(b []byte) (int, error) {
	return mfw.buffer.Read(b)
}

func (mfw *memoryFileWriter) Write(b []byte) (int, error) {
	return mfw.buffer.Write(b)
}

func (mfw *memoryFileWriter) Close() error {
	return nil
}

func (mfw *memoryFileWriter) Bytes() []byte {
	return mfw.buffer.Bytes()
}

func compressionCodec(name string) parquet.CompressionCodec {
	switch name {
	case "snappy":
		return parquet.CompressionCodec_SNAPPY
	case "gzip":
		return parquet.CompressionCodec_GZIP
	default:
		return parquet.CompressionCodec_UNCOMPRESSED
	}
}

// EncodeReportParquet renders report rows as a parquet file.
func EncodeReportParquet(rows []models.ReportRow, runID string, generatedAt time.Time, compression string) ([]byte, error) {
	records := make([]interface{}, 0, len(rows))
	for _, r := range rows {
		records = append(records, ReportRecord{
			RunID:        runID,
			GeneratedAt:  generatedAt.UnixMilli(),
			Name:         r.Name,
			ItemType:     r.ItemType,
			Quantity:     r.Quantity,
			MaxSellOrder: r.MaxSellOrder,
			MinBuyOrder:  r.MinBuyOrder,
			TotalSpend:   r.TotalSpend,
			TotalIncome:  r.TotalIncome,
			TotalProfit:  r.TotalProfit,
		})
	}
	return encodeParquet(new(ReportRecord), records, compression)
}

// EncodeCurvesParquet renders every depth of the given curves, starting at
// the first traded unit.
func EncodeCurvesParquet(item string, curves []models.NamedCurve, runID, compression string) ([]byte, error) {
	var records []interface{}
	for _, nc := range curves {
		for i := 1; i < len(nc.Curve.PTot); i++ {
			records = append(records, CurvePointRecord{
				RunID:        runID,
				Item:         item,
				Side:         nc.Curve.Side.String(),
				Scope:        nc.Scope.String(),
				Label:        nc.Label,
				Quantity:     nc.Curve.Q[i],
				TotalPrice:   nc.Curve.PTot[i],
				AveragePrice: nc.Curve.AveragePrice(i),
			})
		}
	}
	return encodeParquet(new(CurvePointRecord), records, compression)
}

func encodeParquet(schema interface{}, records []interface{}, compression string) ([]byte, error) {
	fw := newMemoryFileWriter()

	pw, err := writer.NewParquetWriter(fw, schema, 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = compressionCodec(compression)

	for _, rec := range records {
		if err := pw.Write(rec); err != nil {
			pw.WriteStop()
			return nil, fmt.Errorf("failed to write parquet record: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("failed to finalize parquet writing: %w", err)
	}
	return fw.Bytes(), nil
}
