package blame

import "sort"

// Block is a maximal run of consecutive lines last touched by one commit.
type Block struct {
	Start  int
	End    int
	Commit CommitID
}

// Len returns the number of lines in the block.
func (b Block) Len() int {
	return b.End - b.Start + 1
}

// Blocks partitions a view's lines in line order.
type Blocks []Block

// IndexBlocks groups lines into blocks in a single pass, starting a new
// block wherever the commit changes from the previous line.
func IndexBlocks(lines []LineRecord) Blocks {
	var blocks Blocks
	for i, l := range lines {
		if i > 0 && l.Commit == lines[i-1].Commit {
			blocks[len(blocks)-1].End = l.Number
			continue
		}
		blocks = append(blocks, Block{Start: l.Number, End: l.Number, Commit: l.Commit})
	}
	return blocks
}

// IndexOf returns the index of the block containing line, or -1.
func (bs Blocks) IndexOf(line int) int {
	i := sort.Search(len(bs), func(i int) bool { return bs[i].End >= line })
	if i == len(bs) || bs[i].Start > line {
		return -1
	}
	return i
}

// StartAt returns the first line of the block containing line.
func (bs Blocks) StartAt(line int) int {
	i := bs.IndexOf(line)
	if i < 0 {
		return line
	}
	return bs[i].Start
}

// Next returns the first line of the block after the one containing line.
// From the last block it returns that block's own start.
func (bs Blocks) Next(line int) int {
	i := bs.IndexOf(line)
	if i < 0 {
		return line
	}
	if i == len(bs)-1 {
		return bs[i].Start
	}
	return bs[i+1].Start
}

// Previous returns the first line of the block before the one containing
// line. From the first block it returns that block's own start.
func (bs Blocks) Previous(line int) int {
	i := bs.IndexOf(line)
	if i < 0 {
		return line
	}
	if i == 0 {
		return bs[0].Start
	}
	return bs[i-1].Start
}
