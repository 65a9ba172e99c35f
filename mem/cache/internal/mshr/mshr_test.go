package mshr_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/csim/mem/cache/internal/mshr"
)

var _ = Describe("Table", func() {
	var table *mshr.Table

	BeforeEach(func() {
		table = mshr.NewTable(4)
	})

	It("should start with every slot empty", func() {
		for i := 0; i < table.Depth(); i++ {
			Expect(table.At(i).IsEmpty()).To(BeTrue())
		}
	})

	It("should allocate the first empty non-sentinel slot", func() {
		Expect(table.Allocate()).To(Equal(0))

		table.Set(0, mshr.Entry{RequesterID: 7, Address: 0x40, Size: 4})
		Expect(table.Allocate()).To(Equal(1))
	})

	It("should allocate a cleared slot again", func() {
		table.Set(0, mshr.Entry{RequesterID: 7, Address: 0x40, Size: 4})
		table.Set(1, mshr.Entry{RequesterID: 8, Address: 0x80, Size: 4})

		table.Clear(0)

		Expect(table.Allocate()).To(Equal(0))
	})

	It("should fall back to the sentinel slot when full", func() {
		for i := 0; i < 3; i++ {
			table.Set(i, mshr.Entry{RequesterID: i, Address: 0x40, Size: 4})
		}

		Expect(table.Allocate()).To(Equal(3))
	})

	It("should find a slot by requester ID", func() {
		table.Set(2, mshr.Entry{RequesterID: 9, Address: 0x40, Size: 4})

		slot, found := table.FindByID(9)
		Expect(found).To(BeTrue())
		Expect(slot).To(Equal(2))
	})

	It("should not find an ID that is not outstanding", func() {
		_, found := table.FindByID(9)
		Expect(found).To(BeFalse())
	})

	It("should not treat an occupied slot as empty", func() {
		// Requester ID 0 with a real address is a legitimate entry, not
		// the sentinel.
		table.Set(0, mshr.Entry{RequesterID: 0, Address: 0x40, Size: 4})
		Expect(table.At(0).IsEmpty()).To(BeFalse())
	})

	It("should panic on a depth below one", func() {
		Expect(func() { mshr.NewTable(0) }).To(Panic())
	})
})
