package nonblocking

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/sarchlab/csim/mem/cache/internal/tagging"
)

type fixedVictimFinder int

func (f fixedVictimFinder) FindVictim(_ int) int {
	return int(f)
}

var _ = Describe("Comp", func() {
	var (
		mockCtrl *gomock.Controller
		top      *MockRequester
		bottom   *MockBackingStore
		c        *Comp
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		top = NewMockRequester(mockCtrl)
		bottom = NewMockBackingStore(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	// build makes a 1KB, 4-way cache with 8-byte lines and 32 sets, so
	// 0x00 maps to set 0 and 0x08 to set 1.
	build := func(numMSHR int) {
		c = MakeBuilder().
			WithTotalByteSize(1 << 10).
			WithLineSize(8).
			WithWayAssociativity(4).
			WithAddrWidth(32).
			WithNumMSHR(numMSHR).
			WithVictimFinder(fixedVictimFinder(2)).
			Build("Cache")
		c.SetTop(top)
		c.SetBottom(bottom)
	}

	It("should serve hits while a miss is outstanding", func() {
		build(3)

		bottom.EXPECT().SendMemRequest(uint64(0x00), 8, nil, 1)
		Expect(c.ReceiveRequest(0x00, 4, nil, 1)).To(BeTrue())
		top.EXPECT().SendResponse(1, []byte{0x10, 0x11, 0x12, 0x13})
		c.ReceiveMemResponse(1,
			[]byte{0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17})

		bottom.EXPECT().SendMemRequest(uint64(0x08), 8, nil, 2)
		Expect(c.ReceiveRequest(0x08, 4, nil, 2)).To(BeTrue())
		Expect(c.IsBlocked()).To(BeFalse())

		top.EXPECT().SendResponse(3, []byte{0x12, 0x13})
		Expect(c.ReceiveRequest(0x02, 2, nil, 3)).To(BeTrue())
		Expect(c.Hits()).To(Equal(uint64(1)))

		top.EXPECT().SendResponse(2, []byte{0x20, 0x21, 0x22, 0x23})
		c.ReceiveMemResponse(2,
			[]byte{0x20, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27})
	})

	It("should complete outstanding misses in any order", func() {
		build(3)

		bottom.EXPECT().SendMemRequest(uint64(0x00), 8, nil, 1)
		Expect(c.ReceiveRequest(0x00, 4, nil, 1)).To(BeTrue())

		bottom.EXPECT().SendMemRequest(uint64(0x08), 8, nil, 2)
		Expect(c.ReceiveRequest(0x08, 4, nil, 2)).To(BeTrue())
		Expect(c.IsBlocked()).To(BeFalse())

		top.EXPECT().SendResponse(2, []byte{0x20, 0x21, 0x22, 0x23})
		c.ReceiveMemResponse(2,
			[]byte{0x20, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27})

		top.EXPECT().SendResponse(1, []byte{0x10, 0x11, 0x12, 0x13})
		c.ReceiveMemResponse(1,
			[]byte{0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17})
	})

	It("should block when a miss lands in the last MSHR slot", func() {
		build(2)

		bottom.EXPECT().SendMemRequest(uint64(0x00), 8, nil, 1)
		Expect(c.ReceiveRequest(0x00, 4, nil, 1)).To(BeTrue())
		Expect(c.IsBlocked()).To(BeFalse())

		bottom.EXPECT().SendMemRequest(uint64(0x08), 8, nil, 2)
		Expect(c.ReceiveRequest(0x08, 4, nil, 2)).To(BeTrue())
		Expect(c.IsBlocked()).To(BeTrue())

		Expect(c.ReceiveRequest(0x10, 4, nil, 3)).To(BeFalse())
		Expect(c.Misses()).To(Equal(uint64(2)))
	})

	It("should unblock when any outstanding miss resolves", func() {
		build(2)

		bottom.EXPECT().SendMemRequest(uint64(0x00), 8, nil, 1)
		Expect(c.ReceiveRequest(0x00, 4, nil, 1)).To(BeTrue())
		bottom.EXPECT().SendMemRequest(uint64(0x08), 8, nil, 2)
		Expect(c.ReceiveRequest(0x08, 4, nil, 2)).To(BeTrue())
		Expect(c.IsBlocked()).To(BeTrue())

		// Resolving the first miss frees slot 0, not the sentinel, but
		// the cache unblocks anyway.
		top.EXPECT().SendResponse(1, []byte{0x10, 0x11, 0x12, 0x13})
		c.ReceiveMemResponse(1,
			[]byte{0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17})
		Expect(c.IsBlocked()).To(BeFalse())

		bottom.EXPECT().SendMemRequest(uint64(0x10), 8, nil, 3)
		Expect(c.ReceiveRequest(0x10, 4, nil, 3)).To(BeTrue())
		Expect(c.IsBlocked()).To(BeFalse())
	})

	It("should apply the write bytes when a write miss resolves", func() {
		build(2)

		bottom.EXPECT().SendMemRequest(uint64(0x00), 8, nil, 1)
		Expect(c.ReceiveRequest(0x00, 4, []byte{9, 8, 7, 6}, 1)).To(BeTrue())

		top.EXPECT().SendResponse(1, gomock.Nil())
		c.ReceiveMemResponse(1, []byte{0, 1, 2, 3, 4, 5, 6, 7})

		Expect(c.tags.State(0)).To(Equal(tagging.StateDirty))

		top.EXPECT().SendResponse(2, []byte{9, 8, 7, 6, 4, 5, 6, 7})
		Expect(c.ReceiveRequest(0x00, 8, nil, 2)).To(BeTrue())
	})

	It("should write back a dirty victim when the set is full", func() {
		build(2)

		// Dirty every way of set 0. Way i holds block i*0x100.
		for i := 0; i < 4; i++ {
			id := i + 1
			base := uint64(i) * 0x100
			data := bytes.Repeat([]byte{byte(0x11 * (i + 1))}, 8)

			bottom.EXPECT().SendMemRequest(base, 8, nil, id)
			Expect(c.ReceiveRequest(base, 8, data, id)).To(BeTrue())

			top.EXPECT().SendResponse(id, gomock.Nil())
			c.ReceiveMemResponse(id, make([]byte, 8))
		}
		Expect(c.WriteBacks()).To(Equal(uint64(0)))

		victimData := bytes.Repeat([]byte{0x33}, 8)
		gomock.InOrder(
			bottom.EXPECT().SendMemRequest(uint64(0x200), 8, victimData, 5),
			bottom.EXPECT().SendMemRequest(uint64(0x400), 8, nil, 5),
		)

		Expect(c.ReceiveRequest(0x400, 8, nil, 5)).To(BeTrue())
		Expect(c.WriteBacks()).To(Equal(uint64(1)))
	})

	It("should panic on a response that matches no outstanding miss", func() {
		build(2)

		Expect(func() {
			c.ReceiveMemResponse(1, make([]byte, 8))
		}).To(Panic())
	})

	It("should panic on a fill that is not one line long", func() {
		build(2)

		bottom.EXPECT().SendMemRequest(uint64(0x00), 8, nil, 1)
		Expect(c.ReceiveRequest(0x00, 4, nil, 1)).To(BeTrue())

		Expect(func() {
			c.ReceiveMemResponse(1, make([]byte, 4))
		}).To(Panic())
	})

	It("should panic on a misaligned request", func() {
		build(2)

		Expect(func() {
			c.ReceiveRequest(0x02, 4, nil, 1)
		}).To(Panic())
	})
})
