// Package benchmark compares fcode against Protocol Buffers and JSON
// for equivalent payloads. The protobuf side uses well-known types so
// no generated code is needed.
package benchmark

import (
	"encoding/json"
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/tijsvd/fcode/pkg/fcode"
)

// Timestamp mirrors the layout of timestamppb.Timestamp.
type Timestamp struct {
	Seconds int64
	Nanos   int32
}

func makeTimestamp() Timestamp {
	return Timestamp{Seconds: 1705900800, Nanos: 123456789}
}

func makeProtoTimestamp() *timestamppb.Timestamp {
	return &timestamppb.Timestamp{Seconds: 1705900800, Nanos: 123456789}
}

func makeMetrics() map[string]float64 {
	return map[string]float64{
		"count": 1000000,
		"sum":   12345678.90,
		"min":   0.001,
		"max":   99999.99,
		"p50":   10000.0,
		"p95":   50000.0,
		"p99":   90000.0,
	}
}

func BenchmarkTimestampEncodeFcode(b *testing.B) {
	v := makeTimestamp()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := fcode.Marshal(v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTimestampEncodeProtobuf(b *testing.B) {
	v := makeProtoTimestamp()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := proto.Marshal(v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTimestampEncodeJSON(b *testing.B) {
	v := makeTimestamp()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := json.Marshal(v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTimestampDecodeFcode(b *testing.B) {
	data, err := fcode.Marshal(makeTimestamp())
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		var v Timestamp
		if err := fcode.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTimestampDecodeProtobuf(b *testing.B) {
	data, err := proto.Marshal(makeProtoTimestamp())
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		var v timestamppb.Timestamp
		if err := proto.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTimestampDecodeJSON(b *testing.B) {
	data, err := json.Marshal(makeTimestamp())
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		var v Timestamp
		if err := json.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMetricsEncodeFcode(b *testing.B) {
	v := makeMetrics()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := fcode.Marshal(v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMetricsEncodeProtobuf(b *testing.B) {
	anyMetrics := make(map[string]any, 7)
	for k, f := range makeMetrics() {
		anyMetrics[k] = f
	}
	v, err := structpb.NewStruct(anyMetrics)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := proto.Marshal(v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMetricsEncodeJSON(b *testing.B) {
	v := makeMetrics()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := json.Marshal(v); err != nil {
			b.Fatal(err)
		}
	}
}

// TestEncodedSizes records the relative wire sizes; fcode should be no
// larger than protobuf and smaller than JSON, since it carries neither
// field tags nor names.
func TestEncodedSizes(t *testing.T) {
	fc, err := fcode.Marshal(makeTimestamp())
	if err != nil {
		t.Fatal(err)
	}
	pb, err := proto.Marshal(makeProtoTimestamp())
	if err != nil {
		t.Fatal(err)
	}
	js, err := json.Marshal(makeTimestamp())
	if err != nil {
		t.Fatal(err)
	}
	t.Logf("timestamp: fcode=%dB protobuf=%dB json=%dB", len(fc), len(pb), len(js))
	if len(fc) > len(pb) {
		t.Errorf("fcode (%dB) should not exceed protobuf (%dB) for this payload", len(fc), len(pb))
	}
	if len(fc) >= len(js) {
		t.Errorf("fcode (%dB) should be smaller than JSON (%dB)", len(fc), len(js))
	}
}
