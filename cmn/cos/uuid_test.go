package cos_test

import (
	"github.com/livetransit/network-monitor/cmn/cos"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("UUID", func() {
	It("generates unique, alpha-leading ids", func() {
		seen := map[string]bool{}
		for i := 0; i < 64; i++ {
			id := cos.GenUUID()
			Expect(len(id)).To(BeNumerically(">=", cos.LenShortID))
			Expect(id).To(MatchRegexp("^[A-Za-z]"))
			Expect(seen[id]).To(BeFalse())
			seen[id] = true
		}
	})

	It("derives a stable hash for the same input", func() {
		Expect(cos.HashString("conn-1")).To(Equal(cos.HashString("conn-1")))
		Expect(cos.HashString("conn-1")).NotTo(Equal(cos.HashString("conn-2")))
	})
})
