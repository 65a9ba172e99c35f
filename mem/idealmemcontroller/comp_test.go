package idealmemcontroller

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/csim/sim"
)

type recordedResponse struct {
	time      sim.VTimeInSec
	requestID int
	data      []byte
}

// fakeCache stands in for the cache above the controller and records when
// each fill arrives.
type fakeCache struct {
	engine    sim.Engine
	responses []recordedResponse
}

func (c *fakeCache) ReceiveRequest(
	address uint64,
	size int,
	data []byte,
	requestID int,
) bool {
	return true
}

func (c *fakeCache) ReceiveMemResponse(requestID int, data []byte) {
	c.responses = append(c.responses, recordedResponse{
		time:      c.engine.CurrentTime(),
		requestID: requestID,
		data:      data,
	})
}

var _ = Describe("Comp", func() {
	var (
		engine *sim.SerialEngine
		top    *fakeCache
		c      *Comp
	)

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		top = &fakeCache{engine: engine}

		c = MakeBuilder().
			WithEngine(engine).
			WithFreq(1 * sim.GHz).
			WithLatency(100).
			WithLineSize(8).
			WithCapacity(1 << 20).
			Build("MemCtrl")
		c.SetTop(top)
	})

	It("should answer a fill after the configured latency", func() {
		line := []byte{1, 2, 3, 4, 5, 6, 7, 8}
		Expect(c.Storage().Write(0x40, line)).To(Succeed())

		c.SendMemRequest(0x40, 8, nil, 1)
		Expect(engine.Run()).To(Succeed())

		Expect(top.responses).To(HaveLen(1))
		Expect(top.responses[0].requestID).To(Equal(1))
		Expect(top.responses[0].data).To(Equal(line))
		Expect(top.responses[0].time).To(
			BeNumerically("~", sim.VTimeInSec(100e-9), 1e-12))
	})

	It("should absorb a write-back without responding", func() {
		data := bytes.Repeat([]byte{0xAB}, 8)

		c.SendMemRequest(0x80, 8, data, 7)
		Expect(engine.Run()).To(Succeed())

		Expect(top.responses).To(BeEmpty())

		stored, err := c.Storage().Read(0x80, 8)
		Expect(err).ToNot(HaveOccurred())
		Expect(stored).To(Equal(data))
	})

	It("should serve a fill from earlier written-back data", func() {
		data := bytes.Repeat([]byte{0xCD}, 8)

		c.SendMemRequest(0x80, 8, data, 1)
		Expect(engine.Run()).To(Succeed())

		c.SendMemRequest(0x80, 8, nil, 2)
		Expect(engine.Run()).To(Succeed())

		Expect(top.responses).To(HaveLen(1))
		Expect(top.responses[0].data).To(Equal(data))
	})

	It("should not alias the caller's write-back buffer", func() {
		data := bytes.Repeat([]byte{0xEF}, 8)
		c.SendMemRequest(0x80, 8, data, 1)

		data[0] = 0x00
		Expect(engine.Run()).To(Succeed())

		stored, err := c.Storage().Read(0x80, 8)
		Expect(err).ToNot(HaveOccurred())
		Expect(stored[0]).To(Equal(byte(0xEF)))
	})

	It("should zero-fill untouched memory", func() {
		c.SendMemRequest(0x1000, 8, nil, 3)
		Expect(engine.Run()).To(Succeed())

		Expect(top.responses).To(HaveLen(1))
		Expect(top.responses[0].data).To(Equal(make([]byte, 8)))
	})

	It("should panic on a fill that is not one line", func() {
		Expect(func() {
			c.SendMemRequest(0x40, 4, nil, 1)
		}).To(Panic())
	})

	It("should panic on a write-back with a mismatched length", func() {
		Expect(func() {
			c.SendMemRequest(0x40, 8, []byte{1, 2, 3}, 1)
		}).To(Panic())
	})
})
