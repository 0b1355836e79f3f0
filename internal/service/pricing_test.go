package service

import "testing"

func TestQuoteHourlyCents(t *testing.T) {
    cases := []struct {
        name      string
        base      uint32
        hour      int
        occupancy uint32
        want      uint32
    }{
        {"normal midday", 1000, 12, 40, 1000},
        {"morning peak", 1000, 9, 40, 1500},
        {"evening peak", 1000, 19, 0, 1500},
        {"night off-peak", 1000, 2, 0, 800},
        {"late off-peak", 1000, 23, 0, 800},
        {"normal with surcharge", 1000, 12, 90, 1200},
        {"peak with surcharge", 1000, 18, 95, 1800},
        {"off-peak with surcharge", 1000, 0, 100, 960},
        {"just below surcharge", 1000, 12, 89, 1000},
        {"zero base", 0, 9, 95, 0},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            if got := QuoteHourlyCents(tc.base, tc.hour, tc.occupancy); got != tc.want {
                t.Fatalf("QuoteHourlyCents(%d, %d, %d) = %d, want %d",
                    tc.base, tc.hour, tc.occupancy, got, tc.want)
            }
        })
    }
}
