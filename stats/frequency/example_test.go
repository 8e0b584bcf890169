package frequency_test

import (
	"fmt"
	"math"

	frequencystats "github.com/cwbudde/algo-serene/stats/frequency"
)

func ExampleBandBalance() {
	const rate = 8000.0

	x := make([]float64, 8192)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * 50 * float64(i) / rate)
	}

	b, err := frequencystats.BandBalance(x, rate, 100)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("mostly bass: %v\n", b.LowFraction() > 0.99)
	// Output:
	// mostly bass: true
}
