package nicdrv

import (
	"github.com/tamzrod/ecatlink/internal/ecat"
)

// InFrame makes one non-blocking receive attempt for slot idx on the
// selected link and returns its workcounter once it resolves.
//
// A frame filed earlier by another caller is completed without touching
// the link. Otherwise one frame is pulled: a frame for idx completes it,
// a frame for another slot in TX is filed there as RCVD (ErrOtherFrame),
// anything else is dropped (ErrOtherFrame). An empty link gives ErrNoFrame.
func (p *Port) InFrame(idx int, stack Stack) (uint16, error) {
	if err := checkIndex(idx); err != nil {
		return 0, err
	}
	sp, err := p.stack(stack)
	if err != nil {
		return 0, err
	}
	return sp.inFrame(idx)
}

func (p *Port) inFrame(idx int) (uint16, error) {
	slot := &p.rx[idx]
	if slot.load() == BufRcvd {
		// validated when it was filed
		wkc, _ := ecat.WorkCounter(slot.buf[:slot.n])
		slot.store(BufComplete)
		return wkc, nil
	}

	p.rxMu.Lock()
	defer p.rxMu.Unlock()

	n, err := p.dev.Recv(p.scratch[:])
	if err != nil {
		p.stats.recvErrors.Add(1)
		p.log.Debug().Err(err).Msg("receive failed")
		return 0, ErrNoFrame
	}
	if n == 0 {
		return 0, ErrNoFrame
	}
	p.stats.framesReceived.Add(1)

	fr, err := ecat.ParseFrame(p.scratch[:n])
	if err != nil || !fr.IsECAT() {
		p.stats.framesForeign.Add(1)
		return 0, ErrOtherFrame
	}

	idxf, err := ecat.FrameIndex(fr.Payload)
	if err != nil {
		p.drop(-1, "short datagram header")
		return 0, ErrOtherFrame
	}
	wkc, err := ecat.WorkCounter(fr.Payload)
	if err != nil {
		p.drop(int(idxf), "declared length beyond frame")
		return 0, ErrOtherFrame
	}

	if int(idxf) == idx {
		p.file(idx, fr)
		slot.store(BufComplete)
		p.stats.framesMatched.Add(1)
		return wkc, nil
	}

	if int(idxf) < MaxBuf && p.rx[idxf].load() == BufTx {
		p.file(int(idxf), fr)
		// the owner may have given up and released the slot meanwhile
		if p.rx[idxf].status.CompareAndSwap(int32(BufTx), int32(BufRcvd)) {
			p.stats.framesStored.Add(1)
			return 0, ErrOtherFrame
		}
		p.drop(int(idxf), "slot released while filing")
		return 0, ErrOtherFrame
	}

	p.drop(int(idxf), "no one waiting for index")
	return 0, ErrOtherFrame
}

// file copies a payload into a slot. Caller holds rxMu and publishes the
// slot by storing its status afterwards.
func (p *Port) file(idx int, fr ecat.Received) {
	s := &p.rx[idx]
	s.n = copy(s.buf[:], fr.Payload)
	s.source = fr.Route
	if p.fileHook != nil {
		p.fileHook(idx)
	}
}

func (p *Port) drop(idx int, reason string) {
	p.stats.framesDropped.Add(1)
	p.log.Debug().Int("index", idx).Str("reason", reason).Msg("frame dropped")
}
