package mem_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/wyrelab/wyre/hdl"
	"github.com/wyrelab/wyre/mem"
)

var _ = Describe("MemBlock", func() {
	var (
		mockCtrl *gomock.Controller
		updater  *MockConditionalUpdater
		ctx      *hdl.Context
		m        *mem.MemBlock
		addr     *hdl.Signal
		data     *hdl.Signal
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		updater = NewMockConditionalUpdater(mockCtrl)

		ctx = hdl.NewContext()

		var err error
		m, err = mem.MakeBuilder().
			WithContext(ctx).
			WithBitWidth(8).
			WithAddrWidth(4).
			WithConditionalUpdater(updater).
			Build("m")
		Expect(err).ToNot(HaveOccurred())

		addr, err = ctx.Block().NewInput("addr", 4)
		Expect(err).ToNot(HaveOccurred())
		data, err = ctx.Block().NewInput("data", 8)
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("construction", func() {
		It("should reject non-positive widths", func() {
			_, err := mem.MakeBuilder().
				WithContext(ctx).
				WithBitWidth(0).
				WithAddrWidth(4).
				Build("bad")
			Expect(err).To(MatchError(hdl.ErrInvalidWidth))

			_, err = mem.MakeBuilder().
				WithContext(ctx).
				WithBitWidth(8).
				WithAddrWidth(-1).
				Build("bad")
			Expect(err).To(MatchError(hdl.ErrInvalidWidth))
		})

		It("should require a context", func() {
			_, err := mem.MakeBuilder().
				WithBitWidth(8).
				WithAddrWidth(4).
				Build("bad")
			Expect(err).To(HaveOccurred())
		})

		It("should auto-generate unique names", func() {
			m1, err := mem.MakeBuilder().
				WithContext(ctx).WithBitWidth(8).WithAddrWidth(4).Build("")
			Expect(err).ToNot(HaveOccurred())
			m2, err := mem.MakeBuilder().
				WithContext(ctx).WithBitWidth(8).WithAddrWidth(4).Build("")
			Expect(err).ToNot(HaveOccurred())

			Expect(m1.Name()).ToNot(Equal(m2.Name()))
		})

		It("should reject duplicate names", func() {
			_, err := mem.MakeBuilder().
				WithContext(ctx).WithBitWidth(8).WithAddrWidth(4).Build("m")
			Expect(err).To(MatchError(hdl.ErrDuplicateName))
		})

		It("should hand out increasing identities", func() {
			m2, err := mem.MakeBuilder().
				WithContext(ctx).WithBitWidth(8).WithAddrWidth(4).Build("m2")
			Expect(err).ToNot(HaveOccurred())

			Expect(m2.Identity()).To(BeNumerically(">", m.Identity()))
		})

		It("should register the memory with the block", func() {
			Expect(ctx.Block().MemoryByID(m.Identity())).To(
				BeIdenticalTo(hdl.MemoryDecl(m)))
		})
	})

	Context("read ports", func() {
		It("should build one node per read", func() {
			d, err := m.Read(addr)
			Expect(err).ToNot(HaveOccurred())
			Expect(d.Width()).To(Equal(8))

			Expect(m.ReadPortCount()).To(Equal(1))
			Expect(m.ReadPorts()).To(HaveLen(1))

			node := m.ReadPorts()[0]
			Expect(node.Op).To(Equal(hdl.OpMemRead))
			Expect(node.Mem).To(BeIdenticalTo(hdl.MemoryDecl(m)))
			Expect(node.MemID).To(Equal(m.Identity()))
			Expect(node.Args).To(ConsistOf(addr))
			Expect(node.Dests).To(ConsistOf(d))
		})

		It("should never alias identical reads", func() {
			d1, err := m.Read(addr)
			Expect(err).ToNot(HaveOccurred())
			d2, err := m.Read(addr)
			Expect(err).ToNot(HaveOccurred())

			Expect(d1).ToNot(BeIdenticalTo(d2))
			Expect(m.ReadPorts()).To(HaveLen(2))
		})

		It("should fail past the read-port limit without appending", func() {
			_, err := m.Read(addr)
			Expect(err).ToNot(HaveOccurred())
			_, err = m.Read(addr)
			Expect(err).ToNot(HaveOccurred())

			_, err = m.Read(addr)
			Expect(err).To(MatchError(mem.ErrReadPortLimit))

			// The failed build still consumed capacity.
			Expect(m.ReadPortCount()).To(Equal(3))
			Expect(m.ReadPorts()).To(HaveLen(2))

			_, err = m.Read(addr)
			Expect(err).To(MatchError(mem.ErrReadPortLimit))
		})

		It("should allow unlimited reads when configured", func() {
			open, err := mem.MakeBuilder().
				WithContext(ctx).
				WithBitWidth(8).
				WithAddrWidth(4).
				WithMaxReadPorts(mem.Unlimited).
				Build("open")
			Expect(err).ToNot(HaveOccurred())

			for i := 0; i < 10; i++ {
				_, err := open.Read(addr)
				Expect(err).ToNot(HaveOccurred())
			}
			Expect(open.ReadPortCount()).To(Equal(10))
		})

		It("should reject too-wide addresses", func() {
			wide, err := ctx.Block().NewInput("wide", 5)
			Expect(err).ToNot(HaveOccurred())

			_, err = m.Read(wide)
			Expect(err).To(MatchError(mem.ErrAddressTooWide))

			_, err = m.At(wide)
			Expect(err).To(MatchError(mem.ErrAddressTooWide))
		})

		It("should accept integer addresses as constants", func() {
			d, err := m.Read(5)
			Expect(err).ToNot(HaveOccurred())
			Expect(d.Width()).To(Equal(8))
		})

		It("should reject integer addresses past the address space", func() {
			_, err := m.Read(16)
			Expect(err).To(MatchError(mem.ErrAddressTooWide))

			_, err = m.At(16)
			Expect(err).To(MatchError(mem.ErrAddressTooWide))

			_, err = m.Read(uint64(1) << 40)
			Expect(err).To(MatchError(mem.ErrAddressTooWide))
		})
	})

	Context("cells", func() {
		It("should not consume a read port until materialized", func() {
			cell, err := m.At(addr)
			Expect(err).ToNot(HaveOccurred())

			Expect(cell.Width()).To(Equal(8))
			Expect(m.ReadPortCount()).To(Equal(0))
		})

		It("should memoize the read port", func() {
			cell, err := m.At(addr)
			Expect(err).ToNot(HaveOccurred())

			s1, err := cell.Signal()
			Expect(err).ToNot(HaveOccurred())
			s2, err := cell.Signal()
			Expect(err).ToNot(HaveOccurred())
			_, err = cell.Not()
			Expect(err).ToNot(HaveOccurred())

			Expect(s1).To(BeIdenticalTo(s2))
			Expect(m.ReadPortCount()).To(Equal(1))
		})

		It("should forward operations to the read signal", func() {
			cell, err := m.At(addr)
			Expect(err).ToNot(HaveOccurred())

			low, err := cell.Slice(3, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(low.Width()).To(Equal(4))

			anded, err := cell.And(data)
			Expect(err).ToNot(HaveOccurred())
			Expect(anded.Width()).To(Equal(8))

			Expect(m.ReadPortCount()).To(Equal(1))
		})
	})

	Context("write ports", func() {
		It("should build a write port with an implicit enable", func() {
			cell, err := m.At(addr)
			Expect(err).ToNot(HaveOccurred())

			Expect(cell.Store(data)).To(Succeed())

			Expect(m.WritePortCount()).To(Equal(1))
			node := m.WritePorts()[0]
			Expect(node.Op).To(Equal(hdl.OpMemWrite))
			Expect(node.Args).To(HaveLen(3))
			Expect(node.Args[0]).To(BeIdenticalTo(addr))
			Expect(node.Args[1]).To(BeIdenticalTo(data))
			Expect(node.Args[2].Kind()).To(Equal(hdl.KindConst))
			Expect(node.Args[2].ConstValue().Uint64()).To(Equal(uint64(1)))
			Expect(node.Dests).To(BeEmpty())
		})

		It("should build an enabled write", func() {
			we, err := ctx.Block().NewInput("we", 1)
			Expect(err).ToNot(HaveOccurred())

			cell, err := m.At(addr)
			Expect(err).ToNot(HaveOccurred())
			Expect(cell.StoreEnabled(data, we)).To(Succeed())

			Expect(m.WritePorts()[0].Args[2]).To(BeIdenticalTo(we))
		})

		It("should reject mismatched data widths", func() {
			narrow, err := ctx.Block().NewInput("narrow", 4)
			Expect(err).ToNot(HaveOccurred())

			cell, err := m.At(addr)
			Expect(err).ToNot(HaveOccurred())
			Expect(cell.Store(narrow)).To(MatchError(mem.ErrDataWidthMismatch))
			Expect(m.WritePortCount()).To(Equal(0))
		})

		It("should reject mismatched data widths on conditional writes too", func() {
			narrow, err := ctx.Block().NewInput("narrow2", 4)
			Expect(err).ToNot(HaveOccurred())

			cell, err := m.At(addr)
			Expect(err).ToNot(HaveOccurred())
			Expect(cell.StoreConditional(narrow)).To(
				MatchError(mem.ErrDataWidthMismatch))
		})

		It("should reject wide enables", func() {
			we2, err := ctx.Block().NewInput("we2", 2)
			Expect(err).ToNot(HaveOccurred())

			cell, err := m.At(addr)
			Expect(err).ToNot(HaveOccurred())
			err = cell.Store(mem.EnabledWrite{Data: data, Enable: we2})
			Expect(err).To(MatchError(mem.ErrEnableWidthMismatch))
		})

		It("should fail past the write-port limit", func() {
			cell, err := m.At(addr)
			Expect(err).ToNot(HaveOccurred())

			Expect(cell.Store(data)).To(Succeed())
			Expect(cell.Store(data)).To(MatchError(mem.ErrWritePortLimit))

			Expect(m.WritePortCount()).To(Equal(2))
			Expect(m.WritePorts()).To(HaveLen(1))
		})
	})

	Context("assignment routing", func() {
		It("should reject plain values", func() {
			cell, err := m.At(addr)
			Expect(err).ToNot(HaveOccurred())

			Expect(cell.Assign(data)).To(MatchError(mem.ErrInvalidAssignment))
			Expect(cell.Assign(42)).To(MatchError(mem.ErrInvalidAssignment))
			Expect(cell.Assign(nil)).To(MatchError(mem.ErrInvalidAssignment))
		})

		It("should accept explicit write requests", func() {
			cell, err := m.At(addr)
			Expect(err).ToNot(HaveOccurred())

			Expect(cell.Assign(mem.Write(data))).To(Succeed())
			Expect(m.WritePortCount()).To(Equal(1))
		})

		It("should route conditional writes to the updater", func() {
			updater.EXPECT().
				SubmitWrite(m, addr, data, gomock.Any()).
				Return(nil)

			cell, err := m.At(addr)
			Expect(err).ToNot(HaveOccurred())
			Expect(cell.StoreConditional(data)).To(Succeed())

			// The port is only built once arbitration resolves.
			Expect(m.WritePortCount()).To(Equal(0))
		})

		It("should fail conditional writes without an updater", func() {
			bare, err := mem.MakeBuilder().
				WithContext(ctx).WithBitWidth(8).WithAddrWidth(4).Build("bare")
			Expect(err).ToNot(HaveOccurred())

			cell, err := bare.At(addr)
			Expect(err).ToNot(HaveOccurred())
			Expect(cell.StoreConditional(data)).To(
				MatchError(mem.ErrNoConditionalContext))
		})

		It("should build the arbitrated write on callback", func() {
			we, err := ctx.Block().NewInput("we3", 1)
			Expect(err).ToNot(HaveOccurred())

			Expect(m.BuildArbitratedWrite(addr, data, we)).To(Succeed())
			Expect(m.WritePortCount()).To(Equal(1))
			Expect(m.WritePorts()[0].Args[2]).To(BeIdenticalTo(we))
		})
	})
})
