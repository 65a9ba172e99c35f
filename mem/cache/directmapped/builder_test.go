package directmapped_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/csim/mem/cache/blocking"
	"github.com/sarchlab/csim/mem/cache/directmapped"
)

type memRequest struct {
	address   uint64
	size      int
	data      []byte
	requestID int
}

type fakeBackingStore struct {
	requests []memRequest
}

func (s *fakeBackingStore) SendMemRequest(
	address uint64,
	size int,
	data []byte,
	requestID int,
) {
	s.requests = append(s.requests, memRequest{address, size, data, requestID})
}

type response struct {
	requestID int
	data      []byte
}

type fakeRequester struct {
	responses []response
}

func (r *fakeRequester) SendResponse(requestID int, data []byte) {
	r.responses = append(r.responses, response{requestID, data})
}

var _ = Describe("Builder", func() {
	var (
		top    *fakeRequester
		bottom *fakeBackingStore
		c      *blocking.Comp
	)

	// 1KB with 8-byte lines and one way: 128 sets, so 0x000 and 0x400
	// collide on set 0.
	BeforeEach(func() {
		top = &fakeRequester{}
		bottom = &fakeBackingStore{}

		c = directmapped.MakeBuilder().
			WithTotalByteSize(1 << 10).
			WithLineSize(8).
			WithAddrWidth(32).
			Build("Cache")
		c.SetTop(top)
		c.SetBottom(bottom)
	})

	It("should build a single-way cache", func() {
		Expect(c.Geometry().Ways).To(Equal(1))
		Expect(c.Geometry().NumSets).To(Equal(128))
	})

	It("should write back the sole line of a set on a conflict", func() {
		lineData := bytes.Repeat([]byte{0x55}, 8)

		Expect(c.ReceiveRequest(0x000, 8, lineData, 1)).To(BeTrue())
		c.ReceiveMemResponse(1, make([]byte, 8))
		Expect(top.responses).To(HaveLen(1))
		Expect(top.responses[0].data).To(BeNil())

		Expect(c.ReceiveRequest(0x400, 8, nil, 2)).To(BeTrue())

		Expect(bottom.requests).To(HaveLen(3))
		Expect(bottom.requests[1]).To(Equal(
			memRequest{0x000, 8, lineData, 2}))
		Expect(bottom.requests[2]).To(Equal(
			memRequest{0x400, 8, nil, 2}))
		Expect(c.WriteBacks()).To(Equal(uint64(1)))

		fill := bytes.Repeat([]byte{0x66}, 8)
		c.ReceiveMemResponse(2, fill)
		Expect(top.responses).To(HaveLen(2))
		Expect(top.responses[1].data).To(Equal(fill))

		Expect(c.ReceiveRequest(0x400, 4, nil, 3)).To(BeTrue())
		Expect(c.Hits()).To(Equal(uint64(1)))
		Expect(top.responses[2].data).To(Equal(fill[:4]))
	})

	It("should reuse a clean conflicting line without a write-back", func() {
		Expect(c.ReceiveRequest(0x000, 4, nil, 1)).To(BeTrue())
		c.ReceiveMemResponse(1, make([]byte, 8))

		Expect(c.ReceiveRequest(0x400, 4, nil, 2)).To(BeTrue())
		Expect(bottom.requests).To(HaveLen(2))
		Expect(bottom.requests[1]).To(Equal(memRequest{0x400, 8, nil, 2}))
		Expect(c.WriteBacks()).To(Equal(uint64(0)))
	})
})
